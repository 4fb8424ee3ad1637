// mcufsctl is a command-line client for mcufsd. It speaks the same
// binary frames a device does, which makes it useful both for poking at
// a running server and for exercising the protocol end to end.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcufs/mcufs/internal/client"
)

var (
	addr      string
	maxPacket int
	timeout   time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "mcufsctl",
		Short:         "Client for the mcufs command protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&addr, "addr", "a", "127.0.0.1:7464", "server address")
	root.PersistentFlags().IntVar(&maxPacket, "max-packet", client.DefaultMaxPacketSize, "max packet size (must match the server)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")

	root.AddCommand(
		newInfoCmd(),
		newLsCmd(),
		newCatCmd(),
		newPutCmd(),
		newAppendCmd(),
		newMkdirCmd(),
		newRmCmd(),
		newRmdirCmd(),
		newFormatCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// connect dials the server with the persistent flags.
func connect() (*client.Client, error) {
	return client.Dial(addr, client.Options{
		MaxPacketSize: maxPacket,
		Timeout:       timeout,
	})
}

// withClient runs fn with a connected client and closes it afterwards.
func withClient(fn func(*client.Client) error) error {
	c, err := connect()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}
