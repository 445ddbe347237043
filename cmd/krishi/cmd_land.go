package main

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/usecases"
)

var (
	geojsonPath string
	register    bool
)

// captureCmd measures a drawn parcel and optionally registers it
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Measure a drawn parcel and optionally register it as your land",
	Long: `Reads the parcel as a GeoJSON FeatureCollection (or a single Feature),
computes its area and centre and looks up the country it lies in.

With --register the parcel is submitted as your land. That needs a signed-in
session.

Example:
  krishi capture --geojson field.geojson --register`,
	RunE: runCapture,
}

var landsCmd = &cobra.Command{
	Use:   "lands",
	Short: "List your registered land",
	RunE:  runLands,
}

var satelliteCmd = &cobra.Command{
	Use:   "satellite [polygon-id]",
	Short: "Fetch satellite data for a registered polygon",
	Args:  cobra.ExactArgs(1),
	RunE:  runSatellite,
}

func registerLandCommands() {
	captureCmd.Flags().StringVar(&geojsonPath, "geojson", "", "GeoJSON file with the drawn polygon (required)")
	captureCmd.Flags().BoolVar(&register, "register", false, "Register the parcel as your land")
	captureCmd.MarkFlagRequired("geojson")

	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(landsCmd)
	rootCmd.AddCommand(satelliteCmd)
}

// readFeatures accepts a FeatureCollection or a single Feature.
func readFeatures(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		return fc, nil
	}
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, fmt.Errorf("%s: not a GeoJSON feature or feature collection: %w", path, err)
	}
	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return fc, nil
}

func runCapture(cmd *cobra.Command, args []string) error {
	features, err := readFeatures(geojsonPath)
	if err != nil {
		return err
	}

	return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
		var sess *domain.AuthSession
		if register {
			// Fail before the lookup when the land could not be submitted anyway.
			if sess, err = env.session(ctx); err != nil {
				return err
			}
		}

		captures := usecases.NewCaptureService(geocoder(), nil)
		capture, err := captures.Open(ctx, "")
		if err != nil {
			return describe(err)
		}
		defer captures.Close(capture.ID)

		outcome, err := captures.HandleEvent(ctx, capture.ID, domain.DrawEvent{Type: domain.DrawCreate, Features: features})
		if err != nil {
			return describe(err)
		}
		if outcome.Kind == domain.OutcomePrompt {
			return fmt.Errorf("%s: %s", geojsonPath, outcome.Prompt)
		}
		if err := printJSON(env.out, outcome.Area); err != nil {
			return err
		}
		if !register {
			return nil
		}

		onboarding := usecases.NewOnboardingService(captures, env.backends, nil, nil)
		reg, err := onboarding.Register(ctx, sess, capture.ID)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(env.out, "Registered land %s (polygon %s), %.0f m² in %s.\n",
			reg.LandID, reg.PolygonID, reg.Area, reg.Country)
		return nil
	})
}

func runLands(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
		sess, err := env.session(ctx)
		if err != nil {
			return err
		}
		lands, err := usecases.NewOnboardingService(nil, env.backends, nil, nil).Lands(ctx, sess)
		if err != nil {
			return describe(err)
		}
		if len(lands) == 0 {
			fmt.Fprintln(env.out, "No land registered yet. Draw it with `krishi capture --register`.")
			return nil
		}
		return printJSON(env.out, lands)
	})
}

func runSatellite(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
		sess, err := env.session(ctx)
		if err != nil {
			return err
		}
		res, err := usecases.NewOnboardingService(nil, env.backends, nil, nil).SatelliteData(ctx, sess, args[0])
		if err != nil {
			return describe(err)
		}
		return printJSON(env.out, res)
	})
}
