package transpiler

import (
	"strings"
	"testing"
)

// normalize collapses all whitespace runs to a single space and trims the
// ends, for the specification's "equal modulo insignificant whitespace"
// scenario comparisons.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestScenarioHello(t *testing.T) {
	out, err := Transpile("print(\"hi\")\n")
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	if normalize(out) != `console.log("hi");` {
		t.Errorf("got %q, want console.log(\"hi\");", normalize(out))
	}
}

func TestScenarioFunctionAndFString(t *testing.T) {
	src := "def greet(name):\n    print(f\"Hi {name}\")\n"
	out, err := Transpile(src)
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	for _, want := range []string{"function greet(name) {", "console.log(`Hi ${name}`);", "}"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScenarioRangeLoop(t *testing.T) {
	src := "for i in range(3):\n    print(i)\n"
	out, err := Transpile(src)
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	want := "for (const i of Array.from({length: 3}, (_, i) => i)) { console.log(i); }"
	if normalize(out) != want {
		t.Errorf("got %q, want %q", normalize(out), want)
	}
}

func TestScenarioClassConstructorAndMethod(t *testing.T) {
	src := "class A:\n    def __init__(self, x):\n        self.x = x\n    def get(self):\n        return self.x\n"
	out, err := Transpile(src)
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	for _, want := range []string{"class A {", "constructor(x) {", "this.x = x;", "get() {", "return this.x;"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScenarioFloorDivision(t *testing.T) {
	out, err := Transpile("y = 7 // 2\n")
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	if !strings.Contains(out, "Math.floor(7 / 2)") {
		t.Errorf("output %q does not contain Math.floor(7 / 2)", out)
	}
}

func TestScenarioTryExcept(t *testing.T) {
	src := "try:\n    f()\nexcept Exception as e:\n    print(e)\n"
	out, err := Transpile(src)
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	want := "try { f(); } catch (e) { console.log(e); }"
	if normalize(out) != want {
		t.Errorf("got %q, want %q", normalize(out), want)
	}
}

func TestDeterminism(t *testing.T) {
	src := "class A:\n    def __init__(self, x):\n        self.x = x\n"
	first, err := Transpile(src)
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Transpile(src)
		if err != nil {
			t.Fatalf("Transpile failed on run %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("run %d diverged:\n%s\nvs\n%s", i, again, first)
		}
	}
}

func TestCommentInvariance(t *testing.T) {
	withComments := "def f(x):\n    # explains x\n    return x  # trailing note is not stripped by this transform\n"
	withoutComments := "def f(x):\n    return x  \n"
	a, err := Transpile(withComments)
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	b, err := Transpile(withoutComments)
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	if a != b {
		t.Errorf("comment-only lines changed output:\n%s\nvs\n%s", a, b)
	}
}

func TestBlankLineInvariance(t *testing.T) {
	tight := "x = 1\ny = 2\n"
	spaced := "x = 1\n\n\ny = 2\n"
	a, err := Transpile(tight)
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	b, err := Transpile(spaced)
	if err != nil {
		t.Fatalf("Transpile failed: %v", err)
	}
	if a != b {
		t.Errorf("blank lines changed output:\n%s\nvs\n%s", a, b)
	}
}

func TestParseFailureMessageShape(t *testing.T) {
	_, err := Transpile("def (x):\n    pass\n")
	if err == nil {
		t.Fatal("expected a failure")
	}
	if !strings.HasPrefix(err.Error(), "IndentScript Error at line ") {
		t.Errorf("error message %q does not match the documented shape", err.Error())
	}
}
