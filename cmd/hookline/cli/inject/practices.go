package inject

import (
	"github.com/hookline/hookline/cmd/hookline/cli/detect"
)

var genericPractices = []string{
	"Follow the naming and layout of any existing tests before adding new ones.",
	"Keep each test focused on one behaviour and name it after that behaviour.",
	"Prefer real collaborators; mock only process boundaries (network, clock, filesystem).",
	"Cover error paths and edge cases, not just the happy path.",
	"Make tests deterministic: no sleeps, no reliance on ordering or wall-clock time.",
}

var frameworkPractices = map[detect.Framework][]string{
	detect.FrameworkPytest: {
		"Name files test_*.py and functions test_*; place them under the existing test directory.",
		"Share setup through fixtures in conftest.py instead of module-level globals.",
		"Use @pytest.mark.parametrize for input tables.",
		"Use tmp_path and monkeypatch rather than touching real files or environment.",
		"Assert with plain assert statements; use pytest.raises for expected exceptions.",
	},
	detect.FrameworkUnittest: {
		"Subclass unittest.TestCase and name methods test_*.",
		"Use setUp/tearDown for per-test fixtures and addCleanup for resources.",
		"Use subTest for table-driven cases.",
		"Patch collaborators with unittest.mock.patch scoped to the test.",
	},
	detect.FrameworkJest: {
		"Co-locate tests as *.test.ts(x)/*.test.js or place them in __tests__/.",
		"Group with describe and keep it() descriptions behavioural.",
		"Reset mocks between tests (jest.resetAllMocks or resetMocks config).",
		"Await async code; never leave unhandled promises in a test.",
	},
	detect.FrameworkVitest: {
		"Name tests *.test.ts or *.spec.ts next to the code under test.",
		"Import describe/it/expect from vitest explicitly unless globals are configured.",
		"Use vi.fn and vi.spyOn for doubles and restore them in afterEach.",
		"Use test.each for input tables.",
	},
	detect.FrameworkMocha: {
		"Place specs where .mocharc points (usually test/).",
		"Return or await promises from async tests.",
		"Pair mocha with the assertion library already in use (chai, node:assert).",
	},
	detect.FrameworkGo: {
		"Put tests in *_test.go files in the same package (or package x_test for black-box tests).",
		"Write table-driven tests with t.Run subtests.",
		"Use t.TempDir, t.Setenv and t.Cleanup instead of manual setup and teardown.",
		"Mark helpers with t.Helper and parallel-safe tests with t.Parallel.",
		"Run with -race when tests touch concurrency.",
	},
	detect.FrameworkCargo: {
		"Unit tests live in a #[cfg(test)] mod tests block in the same file.",
		"Integration tests live in tests/ and use only the public API.",
		"Use #[should_panic] or Result-returning tests for error paths.",
	},
	detect.FrameworkRSpec: {
		"Mirror lib/ paths under spec/ with *_spec.rb files.",
		"Use let and before blocks for setup; avoid instance variables.",
		"Prefer verifying doubles (instance_double) over plain doubles.",
	},
	detect.FrameworkMaven: {
		"Mirror src/main/java packages under src/test/java with *Test classes.",
		"Use JUnit 5 annotations (@Test, @ParameterizedTest) consistently.",
		"Keep integration tests separate (*IT classes run by failsafe).",
	},
	detect.FrameworkGradle: {
		"Mirror src/main/java packages under src/test/java with *Test classes.",
		"Use JUnit 5 annotations (@Test, @ParameterizedTest) consistently.",
		"Run a single class with --tests to iterate quickly.",
	},
	detect.FrameworkPHPUnit: {
		"Mirror src/ classes under tests/ with *Test.php classes extending TestCase.",
		"Use data providers for input tables.",
		"Prefer createStub/createMock over hand-written doubles.",
	},
}

// BestPractices returns the guidance section for a framework, falling back to
// generic advice when the framework is unknown.
func BestPractices(f detect.Framework) (string, []string) {
	if practices, ok := frameworkPractices[f]; ok {
		return "Best practices for " + string(f), practices
	}
	return "General testing best practices", genericPractices
}
