package main

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/nttrelay/ntt/internal/store"
)

var packNow bool

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "fold loose blobs into a pack file, on demand or on a schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		if packNow {
			return runPackBlobs(cmd, st)
		}

		c := cron.New()
		_, err = c.AddFunc(cfg.Store.PackScheduleCron, func() {
			if _, err := runPackBlobsResult(st); err != nil {
				log.WithError(err).Error("scheduled pack-blobs failed")
			}
		})
		if err != nil {
			return fmt.Errorf("invalid pack_schedule_cron %q: %w", cfg.Store.PackScheduleCron, err)
		}
		log.WithField("schedule", cfg.Store.PackScheduleCron).Info("pack-blobs scheduler started")
		c.Run()
		return nil
	},
}

func runPackBlobsResult(st *store.Store) (store.PackBlobsResult, error) {
	var limitN *uint32
	if cfg.Store.PackLimitNbBlobs > 0 {
		limitN = &cfg.Store.PackLimitNbBlobs
	}
	var limitSize *uint64
	if cfg.Store.PackLimitSizeMB > 0 {
		bytes := cfg.Store.PackLimitSizeMB * 1024 * 1024
		limitSize = &bytes
	}
	return st.PackBlobs(store.PackBlobsOptions{
		LimitNbBlobs:         limitN,
		LimitSize:            limitSize,
		DeleteBlobsAfterPack: cfg.Store.DeleteBlobsOnPack,
	})
}

func runPackBlobs(cmd *cobra.Command, st *store.Store) error {
	res, err := runPackBlobsResult(st)
	if err != nil {
		return err
	}
	if len(res.Packed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to pack")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "packed %d blobs into %s (%d skipped)\n", len(res.Packed), res.PackHash, res.Skipped)
	return nil
}

func init() {
	packCmd.Flags().BoolVar(&packNow, "now", false, "pack once and exit instead of running the schedule")
}
