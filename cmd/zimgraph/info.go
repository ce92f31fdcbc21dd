package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/zimgraph"
	"github.com/hupe1980/zimgraph/zim"
)

type archiveInfo struct {
	UUID      string            `json:"uuid"`
	Version   string            `json:"version"`
	Size      int64             `json:"size"`
	Entries   uint32            `json:"entries"`
	Clusters  uint32            `json:"clusters"`
	MimeTypes []string          `json:"mime_types"`
	MainPage  string            `json:"main_page,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Checksum  string            `json:"checksum,omitempty"`
	Session   *zimgraph.Stats   `json:"session,omitempty"`
}

var metadataNames = []string{"Title", "Language", "Creator", "Date"}

func newInfoCmd(g *globalOptions) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "info ARCHIVE",
		Short: "Describe an archive and, with --session, its saved graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			graph, closeFn, err := g.open(ctx, args[0], g.session != "")
			if err != nil {
				return err
			}
			defer closeFn()

			a := graph.Archive()
			h := a.Header()
			info := archiveInfo{
				UUID:      h.UUID.String(),
				Version:   fmt.Sprintf("%d.%d", h.MajorVersion, h.MinorVersion),
				Size:      a.Size(),
				Entries:   h.EntryCount,
				Clusters:  h.ClusterCount,
				MimeTypes: a.MimeTypes(),
				Metadata:  map[string]string{},
			}
			if e, err := a.MainEntry(ctx); err == nil {
				info.MainPage = e.Path
			}
			for _, name := range metadataNames {
				v, err := a.Metadata(ctx, name)
				if err == nil {
					info.Metadata[name] = string(v)
				} else if !errors.Is(err, zim.ErrNotFound) {
					return err
				}
			}
			if verify {
				info.Checksum = "ok"
				if err := a.Verify(ctx); err != nil {
					if !errors.Is(err, zim.ErrChecksumMismatch) {
						return err
					}
					info.Checksum = "mismatch"
				}
			}
			if g.session != "" {
				s := graph.Stats()
				info.Session = &s
			}

			if g.json {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			return printInfo(cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the archive's MD5 checksum")
	return cmd
}

func printInfo(w io.Writer, info archiveInfo) error {
	fmt.Fprintf(w, "uuid:       %s\n", info.UUID)
	fmt.Fprintf(w, "version:    %s\n", info.Version)
	fmt.Fprintf(w, "size:       %s\n", humanize.IBytes(uint64(info.Size)))
	fmt.Fprintf(w, "entries:    %s\n", humanize.Comma(int64(info.Entries)))
	fmt.Fprintf(w, "clusters:   %s\n", humanize.Comma(int64(info.Clusters)))
	fmt.Fprintf(w, "mime types: %d\n", len(info.MimeTypes))
	if info.MainPage != "" {
		fmt.Fprintf(w, "main page:  %s\n", info.MainPage)
	}
	for _, name := range metadataNames {
		if v, ok := info.Metadata[name]; ok {
			fmt.Fprintf(w, "%-11s %s\n", name+":", v)
		}
	}
	if info.Checksum != "" {
		fmt.Fprintf(w, "checksum:   %s\n", info.Checksum)
	}
	if s := info.Session; s != nil {
		fmt.Fprintf(w, "session:    %s strings, %s pages, %s links\n",
			humanize.Comma(int64(s.Strings)), humanize.Comma(int64(s.Pages)), humanize.Comma(int64(s.Links)))
	}
	return nil
}
