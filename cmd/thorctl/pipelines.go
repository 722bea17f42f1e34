package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/thorium/pkg/types"
)

var pipelinesCmd = &cobra.Command{
	Use:   "pipelines",
	Short: "manage pipelines",
}

var pipelinesCreateCmd = &cobra.Command{
	Use:   "create GROUP",
	Short: "create a pipeline from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			return fmt.Errorf("--file is required")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var pipeline types.Pipeline
		if err := json.Unmarshal(data, &pipeline); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}
		var out types.Pipeline
		if err := client.do("POST", "/api/pipelines/"+args[0]+"/", &pipeline, &out); err != nil {
			return err
		}
		fmt.Printf("created pipeline %s/%s\n", args[0], out.Name)
		return nil
	},
}

var pipelinesGetCmd = &cobra.Command{
	Use:   "get GROUP NAME",
	Short: "fetch one pipeline",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}
		var out types.Pipeline
		if err := client.do("GET", "/api/pipelines/"+args[0]+"/"+args[1], nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var pipelinesListCmd = &cobra.Command{
	Use:   "list GROUP",
	Short: "list a group's pipelines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}
		var out []types.Pipeline
		if err := client.do("GET", "/api/pipelines/"+args[0]+"/list/", nil, &out); err != nil {
			return err
		}
		for _, p := range out {
			fmt.Println(p.Name)
		}
		return nil
	},
}

var pipelinesDeleteCmd = &cobra.Command{
	Use:   "delete GROUP NAME",
	Short: "delete a pipeline",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}
		if err := client.do("DELETE", "/api/pipelines/"+args[0]+"/"+args[1], nil, nil); err != nil {
			return err
		}
		fmt.Printf("deleted pipeline %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	pipelinesCreateCmd.Flags().String("file", "", "path to a JSON-encoded pipeline (required)")
	pipelinesCmd.AddCommand(pipelinesCreateCmd, pipelinesGetCmd, pipelinesListCmd, pipelinesDeleteCmd)
}
