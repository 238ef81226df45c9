package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nttrelay/ntt/internal/command"
	"github.com/nttrelay/ntt/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "fetch the relay's tip header and its block range, archiving both",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := dialSession()
		if err != nil {
			return fmt.Errorf("dial relay: %w", err)
		}

		tip, err := command.First().Execute(s)
		if err != nil {
			return fmt.Errorf("get tip header: %w", err)
		}
		log.WithField("variant", tip.Variant).Info("fetched tip header")

		st, err := openStore()
		if err != nil {
			return err
		}
		var tipHash store.Hash
		copy(tipHash[:], tip.Body[:min(len(tip.Body), len(tipHash))])
		if err := st.WriteBlob(tipHash, tip.Body, cfg.Store.CompressBlobs); err != nil {
			return fmt.Errorf("write tip blob: %w", err)
		}
		if err := st.WriteTag(store.TagHead, tipHash[:]); err != nil {
			return fmt.Errorf("write HEAD tag: %w", err)
		}

		oldest, err := st.ReadTag(store.TagOldestBlock)
		var fromHash command.HeaderHash
		if err == nil {
			copy(fromHash[:], oldest)
		}
		var toHash command.HeaderHash
		copy(toHash[:], tip.Body[:min(len(tip.Body), len(toHash))])

		blocks, err := command.GetBlocks{From: fromHash, To: toHash}.Execute(s)
		if err != nil {
			return fmt.Errorf("get blocks: %w", err)
		}
		for _, b := range blocks {
			var h store.Hash
			copy(h[:], b[:min(len(b), len(h))])
			if err := st.WriteBlob(h, b, cfg.Store.CompressBlobs); err != nil {
				return fmt.Errorf("write block blob: %w", err)
			}
		}
		log.WithField("count", len(blocks)).Info("archived blocks")
		fmt.Fprintf(cmd.OutOrStdout(), "synced %d blocks, tip %s\n", len(blocks), tipHash)
		return nil
	},
}
