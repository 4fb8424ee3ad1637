package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcufs/mcufs/internal/client"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show filesystem usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) error {
				usage, err := c.Info()
				if err != nil {
					return err
				}
				fmt.Printf("total: %d bytes\nused:  %d bytes\nfree:  %d bytes\n",
					usage.TotalBytes, usage.UsedBytes, usage.TotalBytes-usage.UsedBytes)
				return nil
			})
		},
	}
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <dir>",
		Short: "List a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) error {
				entries, err := c.List(args[0])
				if err != nil {
					return err
				}
				for _, e := range entries {
					kind := "-"
					if e.IsDir {
						kind = "d"
					}
					fmt.Printf("%s %10d %s %s\n",
						kind, e.Size, e.ModTime.Format("2006-01-02 15:04:05"), e.Name)
				}
				return nil
			})
		},
	}
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <file>",
		Short: "Print a file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) error {
				data, err := c.ReadFile(args[0])
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			})
		},
	}
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local-file> <remote-file>",
		Short: "Upload a local file, replacing any previous content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readLocal(args[0])
			if err != nil {
				return err
			}
			return withClient(func(c *client.Client) error {
				if err := c.WriteFile(args[1], data); err != nil {
					return err
				}
				fmt.Printf("wrote %d bytes to %s\n", len(data), args[1])
				return nil
			})
		},
	}
}

func newAppendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append <local-file> <remote-file>",
		Short: "Append a local file to a remote one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readLocal(args[0])
			if err != nil {
				return err
			}
			return withClient(func(c *client.Client) error {
				if err := c.AppendFile(args[1], data); err != nil {
					return err
				}
				fmt.Printf("appended %d bytes to %s\n", len(data), args[1])
				return nil
			})
		},
	}
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <dir>",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) error {
				return c.Mkdir(args[0])
			})
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file>",
		Short: "Remove a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) error {
				return c.Remove(args[0])
			})
		},
	}
}

func newRmdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rmdir <dir>",
		Short: "Remove an empty directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) error {
				return c.Rmdir(args[0])
			})
		},
	}
}

func newFormatCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Erase the whole filesystem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("format erases everything; re-run with --yes to confirm")
			}
			return withClient(func(c *client.Client) error {
				if err := c.Format(); err != nil {
					return err
				}
				fmt.Println("filesystem formatted")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the format")
	return cmd
}

// readLocal reads a local file, with "-" meaning stdin.
func readLocal(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
