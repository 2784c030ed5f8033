package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func evalLua(t *testing.T, L *lua.LState, code string) lua.LValue {
	t.Helper()
	if err := L.DoString(code); err != nil {
		t.Fatalf("failed to execute %q: %v", code, err)
	}
	got := L.Get(-1)
	L.Pop(1)
	return got
}

func TestInjectPlatformTable_Linux(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{
		Platform: Linux,
		Arch:     ARMv7,
		ArchRaw:  "armv7l",
		Distro:   "raspbian",
		Family:   FamilyDebian,
		Version:  "12",
	}

	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	tests := []struct {
		name string
		code string
		want lua.LValue
	}{
		{"os", `return platform.os`, lua.LString("linux")},
		{"arch", `return platform.arch`, lua.LString("armv7l")},
		{"arch_raw", `return platform.arch_raw`, lua.LString("armv7l")},
		{"is_known", `return platform.is_known`, lua.LTrue},
		{"is_linux", `return platform.is_linux`, lua.LTrue},
		{"is_macos", `return platform.is_macos`, lua.LFalse},
		{"is_x64", `return platform.is_x64`, lua.LFalse},
		{"is_arm64", `return platform.is_arm64`, lua.LFalse},
		{"distro.id", `return platform.distro.id`, lua.LString("raspbian")},
		{"distro.family", `return platform.distro.family`, lua.LString("debian")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalLua(t, L, tt.code)
			if got.Type() != tt.want.Type() || got.String() != tt.want.String() {
				t.Errorf("got %v (%s), want %v (%s)", got, got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestInjectPlatformTable_UnknownTarget(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{Platform: Platform("freebsd"), Arch: X64, ArchRaw: "amd64"}
	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	if got := evalLua(t, L, `return platform.os`); got.String() != "freebsd" {
		t.Errorf("os = %v, want freebsd", got)
	}
	if got := evalLua(t, L, `return platform.is_known`); got != lua.LFalse {
		t.Errorf("is_known = %v, want false", got)
	}
	if got := evalLua(t, L, `return platform.distro`); got != lua.LNil {
		t.Errorf("distro = %v, want nil", got)
	}
}

func TestPlatformTable_ReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, &Info{Platform: MacOS, Arch: AArch64}); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	tests := []struct {
		name string
		code string
	}{
		{"modify_existing", `platform.os = "windows"`},
		{"add_new", `platform.custom = true`},
		{"replace_metatable", `setmetatable(platform, {})`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := L.DoString(tt.code); err == nil {
				t.Errorf("expected error for %q", tt.code)
			}
		})
	}

	if got := evalLua(t, L, `return platform.os`); got.String() != "macos" {
		t.Errorf("os changed to %v after failed writes", got)
	}
}

func TestPlatformTable_WhenHelper(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, &Info{Platform: Windows, Arch: X64}); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	got := evalLua(t, L, `return platform.when(platform.is_windows, "yt-dlp-win")`)
	if got.String() != "yt-dlp-win" {
		t.Errorf("when(true) = %v, want yt-dlp-win", got)
	}

	got = evalLua(t, L, `return platform.when(platform.is_linux, "yt-dlp-linux")`)
	if got != lua.LNil {
		t.Errorf("when(false) = %v, want nil", got)
	}

	err := L.DoString(`return platform.when("yes", 1)`)
	if err == nil || !strings.Contains(err.Error(), "boolean expected") {
		t.Errorf("when(non-bool) error = %v, want boolean expected", err)
	}
}
