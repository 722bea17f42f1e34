package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/thorium/pkg/types"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "manage tool images",
}

var imagesCreateCmd = &cobra.Command{
	Use:   "create GROUP",
	Short: "create an image from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := readImageFile(cmd)
		if err != nil {
			return err
		}
		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}

		var out types.Image
		if err := client.do("POST", "/api/images/"+args[0]+"/", image, &out); err != nil {
			return err
		}
		fmt.Printf("created image %s/%s\n", args[0], out.Name)
		return nil
	},
}

var imagesGetCmd = &cobra.Command{
	Use:   "get GROUP NAME",
	Short: "fetch one image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}
		var out types.Image
		if err := client.do("GET", "/api/images/"+args[0]+"/"+args[1], nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var imagesUpdateCmd = &cobra.Command{
	Use:   "update GROUP NAME",
	Short: "replace an image from a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := readImageFile(cmd)
		if err != nil {
			return err
		}
		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}
		return client.do("PATCH", "/api/images/"+args[0]+"/"+args[1], image, nil)
	},
}

var imagesEditCmd = &cobra.Command{
	Use:   "edit GROUP NAME",
	Short: "fetch an image, open it for editing, then update it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("edit requires an interactive terminal UI, which is an external collaborator thorctl does not implement; use get/update instead")
	},
}

var imagesDeleteCmd = &cobra.Command{
	Use:   "delete GROUP NAME",
	Short: "delete an image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}
		if err := client.do("DELETE", "/api/images/"+args[0]+"/"+args[1], nil, nil); err != nil {
			return err
		}
		fmt.Printf("deleted image %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	imagesCreateCmd.Flags().String("file", "", "path to a JSON-encoded image (required)")
	imagesUpdateCmd.Flags().String("file", "", "path to a JSON-encoded image (required)")
	imagesCmd.AddCommand(imagesCreateCmd, imagesGetCmd, imagesUpdateCmd, imagesEditCmd, imagesDeleteCmd)
}

func readImageFile(cmd *cobra.Command) (*types.Image, error) {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var image types.Image
	if err := json.Unmarshal(data, &image); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &image, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
