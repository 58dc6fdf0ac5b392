package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/chunk"
)

var (
	chunkFile string
	chunkMax  int
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Print the chunk boundaries a text file would be split into",
	RunE: func(cmd *cobra.Command, args []string) error {
		if chunkFile == "" {
			return eris.New("--file is required")
		}
		data, err := os.ReadFile(chunkFile)
		if err != nil {
			return eris.Wrap(err, "read file")
		}
		n := chunkMax
		if n == 0 {
			n = cfg.Extract.ChunkMaxChars
		}
		return printChunks(cmd, string(data), n)
	},
}

func printChunks(cmd *cobra.Command, text string, maxChars int) error {
	chunks, err := chunk.Collect(text, maxChars)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	offset := 0
	for _, c := range chunks {
		n := utf8.RuneCountInString(c.Text)
		fmt.Fprintf(out, "chunk %d/%d  chars %d-%d (%d)\n", c.Index+1, c.Total, offset, offset+n, n)
		offset += n
	}
	return nil
}

func init() {
	chunkCmd.Flags().StringVar(&chunkFile, "file", "", "text file to split")
	chunkCmd.Flags().IntVar(&chunkMax, "max", 0, "max characters per chunk (default from config)")
	rootCmd.AddCommand(chunkCmd)
}
