package cmd

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"arrmada/internal/apps"
	"arrmada/internal/config"
	"arrmada/internal/probe"
)

// newCheckCmd creates the read-only status command: it reports what a
// convergence pass would find, without changing anything.
func newCheckCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report stack status without changing anything",
		Long: `Probes every configured application and config file and prints
a status table: whether the HTTP surface answers and whether the API key
is already discoverable. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = " Probing stack..."
			s.Start()

			type row struct {
				name, reachable, key string
			}
			var rows []row

			arrs := []struct {
				name string
				arr  config.ArrConfig
			}{
				{"Prowlarr", cfg.Prowlarr},
				{"Sonarr", cfg.Sonarr},
				{"Radarr", cfg.Radarr},
			}
			for _, a := range arrs {
				r := row{name: a.name, reachable: probeURL(cmd, a.name, a.arr.URL, timeout)}
				if _, err := apps.APIKeyFromXML(a.arr.ConfigPath); err == nil {
					r.key = "found"
				} else {
					r.key = "missing"
				}
				rows = append(rows, r)
			}

			rows = append(rows, row{
				name:      "qBittorrent",
				reachable: probeURL(cmd, "qBittorrent", cfg.QBittorrent.URL, timeout),
				key:       "n/a",
			})

			sabKey := "missing"
			if _, err := apps.APIKeyFromINI(cfg.SABnzbd.ConfigPath); err == nil {
				sabKey = "found"
			}
			rows = append(rows, row{name: "SABnzbd", reachable: fileStatus(cfg.SABnzbd.ConfigPath), key: sabKey})

			s.Stop()

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Application", "Reachable", "API key"})
			for _, r := range rows {
				t.AppendRow(table.Row{r.name, r.reachable, r.key})
			}
			t.SetStyle(table.StyleLight)
			t.Render()
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-application probe timeout")
	return cmd
}

func probeURL(cmd *cobra.Command, name, url string, timeout time.Duration) string {
	if url == "" {
		return "not configured"
	}
	if probe.NewHTTPProbe(name, url).WaitUntilReady(cmd.Context(), timeout) {
		return text.FgGreen.Sprint("yes")
	}
	return text.FgRed.Sprint("no")
}

func fileStatus(path string) string {
	if path == "" {
		return "not configured"
	}
	if _, err := os.Stat(path); err == nil {
		return text.FgGreen.Sprint("ini present")
	}
	return text.FgRed.Sprint("ini missing")
}
