package commands

import "testing"

func withRegistry(t *testing.T) {
	t.Helper()
	saved := registry
	registry = make(map[string]*Command)
	t.Cleanup(func() { registry = saved })
}

func TestRegisterAndGet(t *testing.T) {
	withRegistry(t)
	Register(&Command{Name: "test", Aliases: []string{"t"}, Run: func([]string) error { return nil }})

	got, ok := Get("t")
	if !ok || got.Name != "test" {
		t.Fatalf("Get(alias) = %v, %v", got, ok)
	}
	if _, ok := Get("nonexistent"); ok {
		t.Error("expected not to find non-existent command")
	}
}

func TestListIsSortedAndUnique(t *testing.T) {
	withRegistry(t)
	Register(&Command{Name: "zeta", Aliases: []string{"z"}})
	Register(&Command{Name: "alpha"})

	cmds := List()
	if len(cmds) != 2 || cmds[0].Name != "alpha" || cmds[1].Name != "zeta" {
		t.Fatalf("List() = %v", cmds)
	}
}

func TestBuiltinsRegistered(t *testing.T) {
	for _, name := range []string{"generate", "verify", "show", "history", "hash", "algorithms", "init", "help"} {
		if _, ok := Get(name); !ok {
			t.Errorf("command %q not registered", name)
		}
	}
}
