package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

var (
	signalsURL  string
	signalsFile string
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Fetch a page and print its emails, social links, and phone numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if (signalsURL == "") == (signalsFile == "") {
			return eris.New("exactly one of --url or --file is required")
		}
		if err := cfg.Validate("signals"); err != nil {
			return err
		}

		env, err := initFetch(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		var doc *model.RawDocument
		if signalsURL != "" {
			doc = env.Fetcher.Fetch(ctx, signalsURL)
		} else {
			data, err := os.ReadFile(signalsFile)
			if err != nil {
				return eris.Wrap(err, "read file")
			}
			doc = &model.RawDocument{URL: signalsFile, Kind: model.KindFromURL(signalsFile), Body: data, Source: "file"}
		}

		sig := env.Signals.Extract(ctx, doc)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(struct {
			URL    string `json:"url"`
			Source string `json:"source"`
			model.Signals
		}{URL: doc.URL, Source: doc.Source, Signals: sig}), "encode signals")
	},
}

func init() {
	signalsCmd.Flags().StringVar(&signalsURL, "url", "", "page to fetch")
	signalsCmd.Flags().StringVar(&signalsFile, "file", "", "local HTML or PDF file")
	rootCmd.AddCommand(signalsCmd)
}
