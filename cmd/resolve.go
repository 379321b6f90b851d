package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/k3a/html2text"
	"github.com/spf13/cobra"

	"github.com/rsdocs/docseek/internal/rpc"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve a Rust item path to its documentation URL",
	Long: `Resolve a full simple path such as "serde::de::Visitor" to the URL of its
documentation page. The crate is fetched and indexed automatically when it is
not in the local database.`,
	Example: `  docseek resolve serde::Serialize
  docseek resolve --version 1.40.0 tokio::sync::Mutex
  docseek resolve --describe std::vec::Vec`,
	Args: cobra.ExactArgs(1),
	Run:  runResolve,
}

var (
	resolveVersion  string
	resolveDescribe bool
	resolveJSON     bool
)

func init() {
	resolveCmd.Flags().StringVar(&resolveVersion, "version", "", `crate version (default "latest")`)
	resolveCmd.Flags().BoolVar(&resolveDescribe, "describe", false, "print the item's description")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "output as JSON")
}

func runResolve(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Resolve(context.Background(), rpc.ResolveRequest{
		Path:    args[0],
		Version: resolveVersion,
	})
	if err != nil {
		log.Fatalf("resolve failed: %v", err)
	}

	if resolveJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	if resp.Item != nil {
		printItem(*resp.Item)
		return
	}

	if len(resp.Alternatives) == 0 {
		fmt.Printf("%s not found in %s@%s\n", args[0], resp.Crate, resp.Version)
		return
	}

	fmt.Printf("%s not found in %s@%s, close matches:\n", args[0], resp.Crate, resp.Version)
	for _, alt := range resp.Alternatives {
		printItem(alt)
	}
}

func printItem(item rpc.ResolvedItem) {
	fmt.Printf("  %s (%s)\n    %s\n", item.Path, item.Kind, item.Permalink)
	if resolveDescribe && item.Description != "" {
		// Older indexes carry HTML in descriptions
		desc := strings.TrimSpace(html2text.HTML2Text(item.Description))
		if desc != "" {
			fmt.Printf("    %s\n", desc)
		}
	}
}
