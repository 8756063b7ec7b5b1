package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/wolfman30/autoatende/pkg/logging"
)

// DemoProfile returns the demo restaurant used for local testing.
func DemoProfile(channelID string) *BusinessProfile {
	if channelID == "" {
		channelID = "demo-phone-id"
	}
	return &BusinessProfile{
		ID:          "demo-001",
		ChannelID:   channelID,
		DisplayName: "Restaurante Demo",
		Address:     "Rua do Demo, 123, Porto",
		Hours:       "Segunda a Domingo: 12h00-23h00",
		MenuSummary: "Cozinha portuguesa tradicional. Pratos do dia entre €8-15. Especializados em bacalhau e grelhados.",
		Phone:       "+351 220 000 001",
	}
}

// LoadProfiles reads a JSON array of profiles from path.
func LoadProfiles(path string) ([]*BusinessProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("directory: read seed file: %w", err)
	}
	var profiles []*BusinessProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("directory: decode seed file: %w", err)
	}
	return profiles, nil
}

// Seed registers profiles, skipping channels that are already registered.
// It returns the number of newly registered profiles.
func Seed(ctx context.Context, store Store, profiles []*BusinessProfile, logger *logging.Logger) (int, error) {
	if logger == nil {
		logger = logging.Default()
	}
	registered := 0
	for _, p := range profiles {
		err := store.Register(ctx, p)
		switch {
		case err == nil:
			registered++
			logger.Info("directory: business registered", "business_id", p.ID, "channel_id", p.ChannelID, "name", p.DisplayName)
		case errors.Is(err, ErrAlreadyRegistered):
			logger.Debug("directory: business already registered", "channel_id", p.ChannelID)
		default:
			return registered, err
		}
	}
	return registered, nil
}
