package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

const (
	binaryPath    = "dist/sunsense"
	mainPackage   = "./cmd/sunsense"
	configPackage = "github.com/mklimuk/sunsense/pkg/config"
	builderImage  = "gophertribe/gobuild:1.25-bookworm"
)

// BuildCmd builds the sunsense cli natively or, for foreign targets such as
// a Raspberry Pi, inside the cgo-enabled builder image.
func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the sunsense cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			targetOS, _ := cmd.Flags().GetString("os")
			targetArch, _ := cmd.Flags().GetString("arch")
			version, _ := cmd.Flags().GetString("version")
			crossOS, _ := cmd.Flags().GetString("cross-os")
			crossArch, _ := cmd.Flags().GetString("cross-arch")

			if targetOS == runtime.GOOS && targetArch == runtime.GOARCH {
				if crossOS != "" && crossArch != "" {
					targetOS, targetArch = crossOS, crossArch
				}
				// cgo is required by the hid bridge backend
				return build.GoBuild(binaryPath, mainPackage, build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: configPackage,
					EnableCgo:     true,
					Arch:          targetArch,
					OS:            targetOS,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", targetOS, targetArch),
				[]string{"build", "--version", version, "--cross-os", crossOS, "--cross-arch", crossArch},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   builderImage,
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	return cmd
}
