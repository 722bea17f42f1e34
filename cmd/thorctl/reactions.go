package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/thorium/pkg/types"
)

var reactionsCmd = &cobra.Command{
	Use:   "reactions",
	Short: "launch and inspect reactions",
}

var reactionsCreateCmd = &cobra.Command{
	Use:   "create GROUP PIPELINE",
	Short: "launch a reaction against a pipeline",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, _ := cmd.Flags().GetStringSlice("sample")
		repos, _ := cmd.Flags().GetStringSlice("repo")
		tags, _ := cmd.Flags().GetStringSlice("tag")

		req := map[string]interface{}{
			"pipeline": args[1],
			"samples":  samples,
			"repos":    repos,
			"tags":     tags,
		}

		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}
		var out struct {
			ID string `json:"id"`
		}
		if err := client.do("POST", "/api/reactions/"+args[0]+"/", req, &out); err != nil {
			return err
		}
		fmt.Println(out.ID)
		return nil
	},
}

var reactionsGetCmd = &cobra.Command{
	Use:   "get GROUP ID",
	Short: "fetch one reaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}
		var out types.Reaction
		if err := client.do("GET", "/api/reactions/"+args[0]+"/"+args[1], nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

func init() {
	reactionsCreateCmd.Flags().StringSlice("sample", nil, "sample sha256 to attach, repeatable")
	reactionsCreateCmd.Flags().StringSlice("repo", nil, "repo URL to attach, repeatable")
	reactionsCreateCmd.Flags().StringSlice("tag", nil, "tag to attach, repeatable")
	reactionsCmd.AddCommand(reactionsCreateCmd, reactionsGetCmd)
}
