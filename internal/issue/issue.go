// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"

	"github.com/urdfc/urdfc/pkg/cueutil"
	"github.com/urdfc/urdfc/pkg/expand"
	"github.com/urdfc/urdfc/pkg/localize"
	"github.com/urdfc/urdfc/pkg/mjcf"
	"github.com/urdfc/urdfc/pkg/packages"
	"github.com/urdfc/urdfc/pkg/resolve"
	"github.com/urdfc/urdfc/pkg/xacro"
)

type Id int

const (
	PackageNotFoundId Id = iota + 1
	NonConvergenceId
	InvalidReferenceId
	DirectoryExistsId
	NameGenerationExhaustedId
	UnsupportedDirectiveId
	UndefinedSymbolId
	InvalidDescriptorId
	ConfigLoadFailedId
	ConverterFailedId
	InvalidArgumentId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id          Id          // ID used to lookup the issue
	mdMsg       MarkdownMsg // Markdown text that will be rendered
	suggestions []string    // one-line hints attached to ActionableError
	docLinks    []HttpLink
	sentinels   []error // errors.Is targets that classify an error as this issue
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) Suggestions() []string {
	return slices.Clone(i.suggestions)
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render returns the issue as styled terminal markdown. stylePath is a
// glamour style name ("dark", "light", "auto") or a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	packageNotFoundIssue = &Issue{
		id:        PackageNotFoundId,
		sentinels: []error{packages.ErrPackageNotFound},
		suggestions: []string{
			"Add a directory containing the package with --pkg-dir",
			"Pin the package location with --pkg-path NAME:=PATH",
			"Source your ROS workspace so AMENT_PREFIX_PATH or ROS_PACKAGE_PATH lists it",
		},
		mdMsg: `
# Package not found!

A ` + "`package://`" + ` reference or ` + "`$(find ...)`" + ` named a ROS package that no
search strategy could locate.

## Search order
1. Explicit overrides (` + "`--pkg-path`" + `, ` + "`--pkg-file`" + `, ` + "`packages.paths`" + `)
2. The input file's ancestors (disable with ` + "`--no-walk-up`" + `)
3. Directories given with ` + "`--pkg-dir`" + ` or ` + "`packages.dirs`" + `
4. ` + "`AMENT_PREFIX_PATH`" + ` and ` + "`ROS_PACKAGE_PATH`" + `

## Things you can try:
~~~
$ urdfc pkg find my_robot_description -d ~/ws/src
$ urdfc compile robot.urdf.xacro -p my_robot_description:=~/ws/src/my_robot_description
~~~`,
	}

	nonConvergenceIssue = &Issue{
		id:        NonConvergenceId,
		sentinels: []error{expand.ErrNonConvergence},
		suggestions: []string{
			"Check for a file that includes itself directly or through another file",
			"Raise the budget with --max-runs if the include chain is genuinely deep",
		},
		mdMsg: `
# Macro expansion did not converge!

Every expansion pass still changed the document when the run budget ran out.
This almost always means an include cycle.

## Things you can try:
- Look for ` + "`<xacro:include>`" + ` chains that lead back to the starting file
- Increase the budget when nesting really is deeper than the default:
~~~
$ urdfc compile robot.urdf.xacro --max-runs 20
~~~`,
	}

	invalidReferenceIssue = &Issue{
		id:        InvalidReferenceId,
		sentinels: []error{resolve.ErrInvalidReference},
		suggestions: []string{
			"Package references must look like package://<name>/<path> with no spaces in <name>",
		},
		mdMsg: `
# Invalid resource reference!

A ` + "`filename`" + ` attribute could not be parsed as a resource reference.

## Valid forms
- ` + "`package://robot_models/meshes/arm.stl`" + `
- ` + "`file:///abs/path/arm.stl`" + `
- ` + "`/abs/path/arm.stl`" + ` or ` + "`meshes/arm.stl`" + ``,
	}

	directoryExistsIssue = &Issue{
		id:        DirectoryExistsId,
		sentinels: []error{localize.ErrDirectoryExists},
		suggestions: []string{
			"Pass --reuse-asset-dir or set output.reuse_asset_dir to copy into it anyway",
			"Pick an asset directory that does not exist yet",
		},
		mdMsg: `
# Asset directory already exists!

Asset localization refuses to copy into an existing directory so that files
from an earlier run are never mixed with the new ones.`,
	}

	nameExhaustedIssue = &Issue{
		id:          NameGenerationExhaustedId,
		sentinels:   []error{localize.ErrNameGenerationExhausted},
		suggestions: []string{"Rename some of the assets that share this base name"},
		mdMsg: `
# Too many assets share a file name!

Every suffixed variant from ` + "`_001`" + ` to ` + "`_100`" + ` was already taken.`,
	}

	unsupportedDirectiveIssue = &Issue{
		id:          UnsupportedDirectiveId,
		sentinels:   []error{xacro.ErrUnsupported},
		suggestions: []string{"Pre-process the file with a full xacro implementation and compile the result"},
		docLinks:    []HttpLink{"https://wiki.ros.org/xacro"},
		mdMsg: `
# Unsupported macro directive!

The built-in processor handles ` + "`xacro:arg`" + `, ` + "`xacro:property`" + ` values,
` + "`xacro:if`" + `/` + "`xacro:unless`" + `, ` + "`xacro:include`" + ` and the
` + "`$(arg)`" + `, ` + "`$(find)`" + `, ` + "`$(env)`" + `, ` + "`$(optenv)`" + ` and
` + "`$(dirname)`" + ` substitutions. Macros and ` + "`$(eval)`" + ` are not supported.`,
	}

	undefinedSymbolIssue = &Issue{
		id:        UndefinedSymbolId,
		sentinels: []error{xacro.ErrUndefined, xacro.ErrInvalidCondition},
		suggestions: []string{
			"Pass missing arguments as name:=value after the input file",
			"Declare the argument with <xacro:arg name=... default=.../>",
		},
		mdMsg: `
# Undefined argument or property!

A substitution referenced a name that was never defined, or a condition did
not evaluate to a boolean.`,
	}

	invalidDescriptorIssue = &Issue{
		id:          InvalidDescriptorId,
		sentinels:   []error{packages.ErrInvalidDescriptor},
		suggestions: []string{"A package.xml must contain exactly one <name> element"},
		mdMsg: `
# Invalid package descriptor!

A ` + "`package.xml`" + ` found while searching could not be read or declares an
unexpected number of ` + "`<name>`" + ` elements.`,
	}

	configLoadFailedIssue = &Issue{
		id:        ConfigLoadFailedId,
		sentinels: []error{cueutil.ErrInvalidFile},
		suggestions: []string{
			"Run 'urdfc config show' to see the effective configuration",
		},
		mdMsg: `
# Configuration could not be loaded!

## Things you can try:
~~~
$ urdfc config path
$ urdfc config init
~~~`,
	}

	converterFailedIssue = &Issue{
		id:        ConverterFailedId,
		sentinels: []error{mjcf.ErrNoConverter, mjcf.ErrDuplicateExtension},
		suggestions: []string{
			"Set the converter with --mjcf-converter 'urdf2mjcf {in} {out}' or mjcf.converter",
		},
		mdMsg: `
# MJCF conversion failed!

The MJCF output mode hands a prepared URDF to an external converter command.
` + "`{in}`" + ` and ` + "`{out}`" + ` in the command are replaced by file paths.`,
	}

	invalidArgumentIssue = &Issue{
		id:          InvalidArgumentId,
		sentinels:   []error{ErrInvalidArgument},
		suggestions: []string{"Substitution arguments use the form name:=value"},
		mdMsg: `
# Invalid argument!

~~~
$ urdfc compile robot.urdf.xacro prefix:=left_ use_gripper:=true
~~~`,
	}

	issues = map[Id]*Issue{
		packageNotFoundIssue.Id():      packageNotFoundIssue,
		nonConvergenceIssue.Id():       nonConvergenceIssue,
		invalidReferenceIssue.Id():     invalidReferenceIssue,
		directoryExistsIssue.Id():      directoryExistsIssue,
		nameExhaustedIssue.Id():        nameExhaustedIssue,
		unsupportedDirectiveIssue.Id(): unsupportedDirectiveIssue,
		undefinedSymbolIssue.Id():      undefinedSymbolIssue,
		invalidDescriptorIssue.Id():    invalidDescriptorIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		converterFailedIssue.Id():      converterFailedIssue,
		invalidArgumentIssue.Id():      invalidArgumentIssue,
	}
)

// ErrInvalidArgument marks malformed command-line input.
var ErrInvalidArgument = errors.New("invalid argument")

func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return int(a.id - b.id) })
}

func Get(id Id) *Issue {
	return issues[id]
}

// Classify returns the issue matching err, or nil. Issues are checked in
// Id order so the first declared match wins.
func Classify(err error) *Issue {
	if err == nil {
		return nil
	}
	for _, is := range Values() {
		for _, sentinel := range is.sentinels {
			if errors.Is(err, sentinel) {
				return is
			}
		}
	}
	return nil
}

// Explain wraps err as an ActionableError for operation and resource,
// attaching the suggestions of the matching issue. An err that already is
// an ActionableError is returned unchanged.
func Explain(err error, operation, resource string) error {
	if err == nil {
		return nil
	}
	var ae *ActionableError
	if errors.As(err, &ae) {
		return err
	}
	ctx := NewErrorContext().WithOperation(operation).WithResource(resource).Wrap(err)
	if is := Classify(err); is != nil {
		ctx.WithSuggestions(is.suggestions...)
	}
	return ctx.BuildError()
}
