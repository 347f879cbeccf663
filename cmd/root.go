// cmakegen [variant|clean]
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/qobs-build/cmakegen/internal/builder"
	"github.com/qobs-build/cmakegen/internal/builder/gen"
	"github.com/qobs-build/cmakegen/internal/msg"
	"github.com/spf13/cobra"
)

const cleanArg = "clean"

var (
	flagDir      string
	flagSettings string
	flagJobs     int
	flagDiff     bool
	flagPost     EnumValue = NewEnumValue(string(builder.PostRun), map[string]string{
		string(builder.PostNone):      "Only generate CMakeLists.txt",
		string(builder.PostConfigure): "Generate and run cmake",
		string(builder.PostBuild):     "Generate, run cmake and make",
		string(builder.PostRun):       "Build, then run the binary or the tests (default)",
	})
)

// resolveArg maps the positional argument to either a clean or a variant.
// No argument means DEBUG; anything other than clean or a variant name is
// an error.
func resolveArg(args []string) (clean bool, variant gen.Variant, err error) {
	if len(args) == 0 {
		return false, gen.Debug, nil
	}
	if strings.EqualFold(args[0], cleanArg) {
		return true, gen.Debug, nil
	}
	variant, err = gen.ParseVariant(args[0])
	return false, variant, err
}

func doBuild(cmd *cobra.Command, args []string) {
	clean, variant, err := resolveArg(args)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if clean {
		if err := builder.Clean(flagDir); err != nil {
			msg.Fatal("%v", err)
		}
		return
	}

	b, err := builder.NewBuilderInDirectory(flagDir, builder.Options{
		SettingsPath: flagSettings,
		Post:         builder.PostMode(flagPost.Value()),
		Jobs:         flagJobs,
		Diff:         flagDiff,
	})
	if err != nil {
		msg.Fatal("%v", err)
	}
	if err := b.Build(cmd.Context(), variant); err != nil {
		msg.Fatal("%v", err)
	}
}

func completeVariants(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	items := []string{cleanArg + "\tRemove the build directory"}
	for _, v := range gen.Variants {
		items = append(items, strings.ToLower(v.String()))
	}
	return items, cobra.ShellCompDirectiveNoFileComp
}

var rootCmd = &cobra.Command{
	Use:   "cmakegen [debug|release|relwithdebinfo|minsizerel|clean]",
	Short: "Generate CMakeLists.txt from project_defs.mk",
	Long: `Generate build/CMakeLists.txt from the project_defs.mk of a module,
then configure, build and run it. Without an argument the DEBUG variant is
generated; "clean" removes the build directory.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeVariants,
	Run:               doBuild,
}

func init() {
	rootCmd.Flags().StringVarP(&flagDir, "dir", "C", ".", "Project directory containing "+builder.DefinitionFilename)
	rootCmd.Flags().StringVar(&flagSettings, "settings", "", "Settings overlay (default <dir>/"+builder.SettingsFilename+")")
	rootCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 4, "Parallel jobs for make and test runs")
	rootCmd.Flags().BoolVar(&flagDiff, "diff", false, "Print the changes to "+builder.BuildFilename)
	rootCmd.Flags().Var(&flagPost, "post", "What to do after generating, one of "+flagPost.HelpString())
	rootCmd.RegisterFlagCompletionFunc("post", flagPost.CompletionFunc())
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
