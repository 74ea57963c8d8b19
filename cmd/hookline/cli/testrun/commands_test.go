package testrun

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
	"github.com/hookline/hookline/cmd/hookline/cli/testutil"
)

func TestArgv_FullSuite(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tests := []struct {
		framework detect.Framework
		pm        detect.PackageManager
		want      []string
	}{
		{detect.FrameworkGo, detect.PackageManagerGo, []string{"go", "test", "./..."}},
		{detect.FrameworkPytest, detect.PackageManagerPip, []string{"pytest"}},
		{detect.FrameworkPytest, detect.PackageManagerPoetry, []string{"poetry", "run", "pytest"}},
		{detect.FrameworkPytest, detect.PackageManagerUV, []string{"uv", "run", "pytest"}},
		{detect.FrameworkUnittest, detect.PackageManagerPipenv, []string{"pipenv", "run", "python", "-m", "unittest"}},
		{detect.FrameworkJest, detect.PackageManagerNPM, []string{"npx", "jest"}},
		{detect.FrameworkJest, detect.PackageManagerYarn, []string{"yarn", "jest"}},
		{detect.FrameworkVitest, detect.PackageManagerPnpm, []string{"pnpm", "exec", "vitest", "run"}},
		{detect.FrameworkMocha, detect.PackageManagerBun, []string{"bunx", "mocha"}},
		{detect.FrameworkMocha, "", []string{"npx", "mocha"}},
		{detect.FrameworkCargo, detect.PackageManagerCargo, []string{"cargo", "test"}},
		{detect.FrameworkRSpec, detect.PackageManagerBundler, []string{"bundle", "exec", "rspec"}},
		{detect.FrameworkMaven, detect.PackageManagerMaven, []string{"mvn", "-q", "test"}},
		{detect.FrameworkGradle, detect.PackageManagerGradle, []string{"gradle", "test"}},
		{detect.FrameworkPHPUnit, detect.PackageManagerComposer, []string{"phpunit"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.framework)+"/"+string(tt.pm), func(t *testing.T) {
			t.Parallel()
			got := Argv(Spec{Framework: tt.framework, PackageManager: tt.pm, Dir: root})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgv_Wrappers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.Touch(t, root, "gradlew", "mvnw", "vendor/bin/phpunit")

	assert.Equal(t, []string{"./gradlew", "test"}, Argv(Spec{Framework: detect.FrameworkGradle, Dir: root}))
	assert.Equal(t, []string{"./mvnw", "-q", "test"}, Argv(Spec{Framework: detect.FrameworkMaven, Dir: root}))
	assert.Equal(t, []string{"vendor/bin/phpunit"}, Argv(Spec{Framework: detect.FrameworkPHPUnit, Dir: root}))
}

func TestArgv_Scoped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.Touch(t, root, "tests/test_parser.py", "spec/user_spec.rb")

	tests := []struct {
		name  string
		spec  Spec
		want  []string
	}{
		{
			name: "go packages",
			spec: Spec{Framework: detect.FrameworkGo, Scope: []string{"internal/a/x.go", "internal/a/y.go", "main.go", "README.md"}},
			want: []string{"go", "test", ".", "./internal/a"},
		},
		{
			name: "go without go files runs everything",
			spec: Spec{Framework: detect.FrameworkGo, Scope: []string{"README.md"}},
			want: []string{"go", "test", "./..."},
		},
		{
			name: "pytest related tests",
			spec: Spec{Framework: detect.FrameworkPytest, Scope: []string{"parser.py", "docs/x.md"}},
			want: []string{"pytest", "tests/test_parser.py"},
		},
		{
			name: "jest find related",
			spec: Spec{Framework: detect.FrameworkJest, PackageManager: detect.PackageManagerYarn, Scope: []string{"src/a.ts", "b.css"}},
			want: []string{"yarn", "jest", "--findRelatedTests", "src/a.ts"},
		},
		{
			name: "vitest related",
			spec: Spec{Framework: detect.FrameworkVitest, Scope: []string{"src/a.tsx"}},
			want: []string{"npx", "vitest", "related", "--run", "src/a.tsx"},
		},
		{
			name: "rspec",
			spec: Spec{Framework: detect.FrameworkRSpec, Scope: []string{"lib/user.rb"}},
			want: []string{"rspec", "spec/user_spec.rb"},
		},
		{
			name: "cargo ignores scope",
			spec: Spec{Framework: detect.FrameworkCargo, Scope: []string{"src/lib.rs"}},
			want: []string{"cargo", "test"},
		},
		{
			name: "override wins over scope",
			spec: Spec{Framework: detect.FrameworkGo, Scope: []string{"a.go"}, Override: []string{"make", "test"}},
			want: []string{"make", "test"},
		},
		{
			name: "unknown framework",
			spec: Spec{Framework: "nunit"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.spec.Dir = root
			assert.Equal(t, tt.want, Argv(tt.spec))
		})
	}
}

func TestArgv_OverrideIsCopied(t *testing.T) {
	t.Parallel()

	override := []string{"make", "test"}
	got := Argv(Spec{Override: override})
	got[0] = "changed"
	assert.Equal(t, "make", override[0])
}

func TestSingleFileArgv(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tests := []struct {
		framework detect.Framework
		pm        detect.PackageManager
		file      string
		want      []string
	}{
		{detect.FrameworkGo, "", "pkg/parser_test.go", []string{"go", "test", "./pkg"}},
		{detect.FrameworkGo, "", "main_test.go", []string{"go", "test", "."}},
		{detect.FrameworkPytest, detect.PackageManagerPoetry, "tests/test_a.py", []string{"poetry", "run", "pytest", "tests/test_a.py"}},
		{detect.FrameworkUnittest, "", "tests/test_a.py", []string{"python", "-m", "unittest", "tests.test_a"}},
		{detect.FrameworkJest, detect.PackageManagerNPM, "src/a.test.ts", []string{"npx", "jest", "src/a.test.ts"}},
		{detect.FrameworkVitest, "", "src/a.test.ts", []string{"npx", "vitest", "run", "src/a.test.ts"}},
		{detect.FrameworkCargo, "", "tests/engine.rs", []string{"cargo", "test", "--test", "engine"}},
		{detect.FrameworkMaven, "", "src/test/java/x/WidgetTest.java", []string{"mvn", "-q", "test", "-Dtest=WidgetTest"}},
		{detect.FrameworkGradle, "", "src/test/java/x/WidgetTest.java", []string{"gradle", "test", "--tests", "WidgetTest"}},
		{"nunit", "", "x", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SingleFileArgv(tt.framework, tt.pm, root, tt.file), tt.file)
	}
}

func TestSingleFileArgvWith(t *testing.T) {
	t.Parallel()

	tests := []struct {
		framework detect.Framework
		override  []string
		file      string
		want      []string
	}{
		{detect.FrameworkGo, []string{"go", "test", "-race"}, "pkg/foo_test.go", []string{"go", "test", "-race", "./pkg"}},
		{detect.FrameworkUnittest, []string{"python3", "-m", "unittest"}, "tests/test_a.py", []string{"python3", "-m", "unittest", "tests.test_a"}},
		{detect.FrameworkPytest, []string{"pytest", "-x"}, "tests/test_a.py", []string{"pytest", "-x", "tests/test_a.py"}},
		{detect.FrameworkCargo, []string{"cargo", "nextest", "run"}, "src/lib.rs", []string{"cargo", "nextest", "run"}},
		{detect.FrameworkGradle, []string{"./gradlew", "check"}, "src/test/java/x/WidgetTest.java", []string{"./gradlew", "check", "--tests", "WidgetTest"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SingleFileArgvWith(tt.framework, tt.override, tt.file), tt.file)
	}

	override := []string{"go", "test"}
	_ = SingleFileArgvWith(detect.FrameworkGo, override, "a_test.go")
	assert.Len(t, override, 2)
}

func TestLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "go test", Label(detect.FrameworkGo))
	assert.Equal(t, "pytest", Label(detect.FrameworkPytest))
	assert.Equal(t, "nunit", Label("nunit"))
	assert.True(t, Supported(detect.FrameworkCargo))
	assert.False(t, Supported(""))
}
