package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/Tabitha-Home/THMS-CLIENT/authentication"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "thms",
		Short:         "Tabitha Home child records client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newListCmd(),
		newGetCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newSearchCmd(),
		newStatsCmd(),
		newPhotoCmd(),
		newLoginCmd(),
		newLogoutCmd(),
	)
	return rootCmd
}

func newListCmd() *cobra.Command {
	var status, gender string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List child records",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]string{}
			if status != "" {
				params["status"] = status
			}
			if gender != "" {
				params["gender"] = gender
			}
			if page > 0 {
				params["page"] = fmt.Sprint(page)
			}
			if limit > 0 {
				params["limit"] = fmt.Sprint(limit)
			}

			list, err := cachedChildren.ListChildren(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJson(list)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by current status")
	cmd.Flags().StringVar(&gender, "gender", "", "filter by gender")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <childId>",
		Short: "Fetch one child record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			child, err := cachedChildren.GetChild(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJson(child)
		},
	}
}

func newCreateCmd() *cobra.Command {
	var formFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a child record from a json form file",
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := readForm(formFile)
			if err != nil {
				return err
			}
			child, err := cachedChildren.AddChild(cmd.Context(), form)
			if err != nil {
				return err
			}
			return printJson(child)
		},
	}

	cmd.Flags().StringVarP(&formFile, "file", "f", "", "json file with the form data")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var formFile string

	cmd := &cobra.Command{
		Use:   "update <childId>",
		Short: "Update a child record from a json form file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := readForm(formFile)
			if err != nil {
				return err
			}
			child, err := cachedChildren.UpdateChild(cmd.Context(), args[0], form)
			if err != nil {
				return err
			}
			return printJson(child)
		},
	}

	cmd.Flags().StringVarP(&formFile, "file", "f", "", "json file with the form data")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <childId>",
		Short: "Delete a child record and its local photo override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !config.SkipDeleteConfirm && !confirm(fmt.Sprintf("delete child record %s?", args[0])) {
				fmt.Println("aborted")
				return nil
			}
			if err := cachedChildren.DeleteChild(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search child records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := cachedChildren.SearchChildren(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJson(list)
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show child record statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := cachedChildren.ChildStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJson(stats)
		},
	}
}

func newPhotoCmd() *cobra.Command {
	photoCmd := &cobra.Command{
		Use:   "photo",
		Short: "Manage local photo overrides",
	}

	photoCmd.AddCommand(
		&cobra.Command{
			Use:   "put <childId> <file>",
			Short: "Store a local photo override for a child",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				content, err := ioutil.ReadFile(args[1])
				if err != nil {
					return errors.Wrap(err, "failed to read photo file")
				}
				child, err := cachedChildren.UpdateChildPhoto(cmd.Context(), args[0], filepath.Base(args[1]), content)
				if err != nil {
					return err
				}
				fmt.Printf("stored photo override for %s (%d bytes encoded)\n", child.Id, len(child.PhotoUrl))
				return nil
			},
		},
		&cobra.Command{
			Use:   "meta <childId>",
			Short: "Show the stored override metadata",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				meta, err := cachedChildren.PhotoMetadata(args[0])
				if err != nil {
					return err
				}
				return printJson(meta)
			},
		},
		&cobra.Command{
			Use:   "clear <childId>",
			Short: "Remove the stored override for a child",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return cachedChildren.ClearChildPhoto(args[0])
			},
		},
		&cobra.Command{
			Use:   "clear-all",
			Short: "Remove every stored override",
			RunE: func(cmd *cobra.Command, args []string) error {
				return cachedChildren.ClearAllPhotos()
			},
		},
	)
	return photoCmd
}

func newLoginCmd() *cobra.Command {
	var token, name string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store api credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return errors.New("--token is required")
			}
			return session.Save(authentication.Credentials{Token: token, DisplayName: name})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "bearer token issued by the backend")
	cmd.Flags().StringVar(&name, "name", "", "display name for the session")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored api credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return session.Clear()
		},
	}
}

func readForm(formFile string) (map[string]interface{}, error) {
	b, err := ioutil.ReadFile(formFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read form file")
	}
	form := map[string]interface{}{}
	if err := json.Unmarshal(b, &form); err != nil {
		return nil, errors.Wrap(err, "failed to decode form file")
	}
	return form, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

func printJson(value interface{}) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
