package main

import (
	"fmt"
	"gravatarlib/internal/gravatar"

	"github.com/spf13/cobra"
)

type urlFlags struct {
	size   int
	rating string
	image  string
	force  bool
	secure bool
	hashed bool
}

func newRootCmd() *cobra.Command {
	var f urlFlags

	cmd := &cobra.Command{
		Use:          "gravatar-url EMAIL",
		Short:        "Print the Gravatar URL for an email address",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := gravatar.New(gravatar.Options{
				Size:               f.size,
				DefaultImage:       f.image,
				ForceDefaultImage:  f.force,
				MaxRating:          f.rating,
				UseSecureTransport: f.secure,
			})
			if err != nil {
				return err
			}

			var email string
			if len(args) == 1 {
				email = args[0]
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.BuildURL(email, !f.hashed))
			return nil
		},
	}

	defaults := gravatar.DefaultOptions()
	flags := cmd.Flags()
	flags.IntVarP(&f.size, "size", "s", defaults.Size, "avatar size in pixels (0-2048)")
	flags.StringVarP(&f.rating, "rating", "r", defaults.MaxRating, "maximum rating: g, pg, r or x")
	flags.StringVarP(&f.image, "default", "d", defaults.DefaultImage, "fallback keyword or image URL")
	flags.BoolVarP(&f.force, "force", "f", false, "always show the fallback image")
	flags.BoolVar(&f.secure, "secure", false, "use the https endpoint")
	flags.BoolVar(&f.hashed, "hashed", false, "EMAIL is already a hash, use it verbatim")

	cmd.AddCommand(newHashCmd())
	return cmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash EMAIL",
		Short: "Print the identifier Gravatar uses for an email address",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gravatar.HashEmail(args[0]))
		},
	}
}
