package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "authenticate and save a bearer token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		if username == "" || password == "" {
			return fmt.Errorf("--username and --password are required")
		}

		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}

		var resp struct {
			Token string `json:"token"`
		}
		if err := client.do("POST", "/api/login/", map[string]string{
			"username": username,
			"password": password,
		}, &resp); err != nil {
			return err
		}

		if err := client.SaveToken(resp.Token); err != nil {
			return err
		}
		fmt.Println("login succeeded")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "print the identity the saved token authenticates as",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromCmd(cmd)
		if err != nil {
			return err
		}

		var resp struct {
			Username string   `json:"username"`
			Role     string   `json:"role"`
			Groups   []string `json:"groups"`
		}
		if err := client.do("GET", "/api/whoami/", nil, &resp); err != nil {
			return err
		}

		fmt.Printf("username: %s\nrole: %s\ngroups: %v\n", resp.Username, resp.Role, resp.Groups)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("username", "", "account username")
	loginCmd.Flags().String("password", "", "account password")
}
