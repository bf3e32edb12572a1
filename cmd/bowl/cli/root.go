package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mwantia/bowl/pkg/bowllog"
	"github.com/mwantia/bowl/pkg/config"
	"github.com/mwantia/bowl/pkg/frame"
	"github.com/mwantia/bowl/pkg/module"
	"github.com/mwantia/bowl/pkg/repl"
	"github.com/mwantia/bowl/pkg/value"
	"github.com/mwantia/bowl/pkg/vm"
	"github.com/spf13/cobra"
)

func NewRootCommand(info VersionInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bowl [script]",
		Short: "bowl - an embeddable stack-oriented interpreter core",
		Long: `bowl is a small virtual machine: a tagged value heap, a copying
collector, a dictionary-dispatch execution loop, and a native module ABI for
loading dlopen'd extensions.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if v, _ := cmd.Flags().GetInt("verbosity"); v > 0 {
				settings.Verbosity = v
			}
			if b, _ := cmd.Flags().GetString("boot"); b != "" {
				settings.BootImage = b
			}
			if k, _ := cmd.Flags().GetString("kernel-lib"); k != "" {
				settings.KernelLib = k
			}
			if loads, _ := cmd.Flags().GetStringArray("load"); len(loads) > 0 {
				settings.LoadModules = loads
			}

			log := bowllog.New(bowllog.Options{
				Verbosity: settings.Verbosity,
				Name:      "bowl",
			})

			machine, err := vm.New(vm.WithLogger(log))
			if err != nil {
				return fmt.Errorf("failed to boot vm: %w", err)
			}

			loader := module.New(machine)
			f := frame.Inherit(machine.RootFrame())
			machine.Chain().Link(f)
			defer machine.Chain().Unlink(f)

			vm.RegisterNative(machine, f, "collect_garbage", vm.NullRef, func(m *vm.VM, cf *frame.Frame) vm.Ref {
				m.CollectGarbage()
				if loader.HadFinalizationFailure() {
					log.Warn("module finalization failed during collection", "error", loader.LastFinalizationError())
					return m.ExceptionFinalizationFailure()
				}
				return vm.NullRef
			})

			if settings.BootImage != "" {
				// Boot-image loading is an external collaborator (spec §1):
				// the core only ever receives the resulting value graph, so
				// this reference host does nothing with the path beyond
				// recording it for whatever loader the embedder supplies.
				log.Info("boot image configured", "path", settings.BootImage)
			}

			if settings.KernelLib != "" {
				if _, exc := loader.Load(f, settings.KernelLib); exc != vm.NullRef {
					return fmt.Errorf("failed to load kernel library: %s", value.Show(machine, exc))
				}
			}
			for _, path := range settings.LoadModules {
				if _, exc := loader.Load(f, path); exc != vm.NullRef {
					return fmt.Errorf("failed to load module %q: %s", path, value.Show(machine, exc))
				}
			}

			interactive, _ := cmd.Flags().GetBool("interactive")

			var source string
			if script, _ := cmd.Flags().GetString("script"); script != "" {
				content, err := os.ReadFile(script)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				source = string(content)
			}
			if command, _ := cmd.Flags().GetString("command"); command != "" {
				source = command
			}
			if len(args) == 1 {
				content, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				source = string(content)
			}

			if strings.TrimSpace(source) != "" {
				program, exc := repl.Tokenize(machine, source)
				if exc != vm.NullRef {
					return fmt.Errorf("tokenize error: %s", value.Show(machine, exc))
				}
				if exc := vm.Execute(machine, f, program); exc != vm.NullRef {
					return fmt.Errorf("runtime error: %s", value.Show(machine, exc))
				}
				if !interactive {
					return nil
				}
			}

			return repl.Run(machine)
		},
	}

	cmd.Flags().BoolP("interactive", "i", false, "Keep the console open after executing")
	cmd.Flags().StringP("command", "c", "", "Execute a single form")
	cmd.Flags().StringP("script", "s", "", "Execute a source file")
	cmd.Flags().String("config", "", "Path to an ini settings file")
	cmd.Flags().String("boot", "", "Path to a boot image, handed to an external loader")
	cmd.Flags().String("kernel-lib", "", "Path to the kernel native module, loaded before any script")
	cmd.Flags().StringArray("load", nil, "Additional native module paths to pre-link (repeatable)")
	cmd.Flags().IntP("verbosity", "v", 0, "Log verbosity: 0 silent, 1 info, 2 debug, 3 trace")
	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}
