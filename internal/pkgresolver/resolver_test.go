package pkgresolver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStdLibScanner_IsStdLib(t *testing.T) {
	scanner := NewStdLibScanner()

	tests := []struct {
		name       string
		importPath string
		wantStdLib bool
	}{
		{"fmt", "fmt", true},
		{"os", "os", true},
		{"net/http", "net/http", true},
		{"encoding/json", "encoding/json", true},
		{"log/slog", "log/slog", true},
		{"third-party", "github.com/samber/lo", false},
		{"third-party-2", "gopkg.in/yaml.v3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isStd, err := scanner.IsStdLib(tt.importPath)
			if err != nil {
				t.Fatalf("IsStdLib() error = %v", err)
			}
			if isStd != tt.wantStdLib {
				t.Errorf("IsStdLib(%s) = %v, want %v",
					tt.importPath, isStd, tt.wantStdLib)
			}
		})
	}
}

func TestPackageNameResolver_StdLib(t *testing.T) {
	projectRoot := findTestProjectRoot(t)
	resolver := NewPackageNameResolver(projectRoot)

	tests := []struct {
		name        string
		importPath  string
		wantPkgName string
	}{
		{"fmt", "fmt", "fmt"},
		{"os", "os", "os"},
		{"net/http", "net/http", "http"},
		{"encoding/json", "encoding/json", "json"},
		{"log/slog", "log/slog", "slog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkgName, err := resolver.GetPackageName(tt.importPath)
			if err != nil {
				t.Fatalf("GetPackageName() error = %v", err)
			}
			if pkgName != tt.wantPkgName {
				t.Errorf("GetPackageName(%s) = %s, want %s",
					tt.importPath, pkgName, tt.wantPkgName)
			}
		})
	}
}

// TestPackageNameResolver_ProjectInternal 测试项目内部包解析
func TestPackageNameResolver_ProjectInternal(t *testing.T) {
	projectRoot := findTestProjectRoot(t)
	resolver := NewPackageNameResolver(projectRoot)

	tests := []struct {
		name        string
		importPath  string
		wantPkgName string
	}{
		{"plugin", "github.com/ctorgen/ctorgen/plugin", "plugin"},
		{"fieldgen", "github.com/ctorgen/ctorgen/fieldgen", "fieldgen"},
		{"utils", "github.com/ctorgen/ctorgen/internal/utils", "utils"},
		{"pkgresolver", "github.com/ctorgen/ctorgen/internal/pkgresolver", "pkgresolver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkgName, err := resolver.GetPackageName(tt.importPath)
			if err != nil {
				t.Fatalf("GetPackageName(%s) error = %v", tt.importPath, err)
			}
			if pkgName != tt.wantPkgName {
				t.Errorf("GetPackageName(%s) = %s, want %s", tt.importPath, pkgName, tt.wantPkgName)
			}
		})
	}
}

// TestPackageNameResolver_Cache 测试缓存机制
func TestPackageNameResolver_Cache(t *testing.T) {
	projectRoot := findTestProjectRoot(t)
	resolver := NewPackageNameResolver(projectRoot)

	importPath := "fmt"

	pkgName1, err := resolver.GetPackageName(importPath)
	if err != nil {
		t.Fatalf("First GetPackageName(%s) error = %v", importPath, err)
	}

	// 第二次调用应该命中缓存
	pkgName2, err := resolver.GetPackageName(importPath)
	if err != nil {
		t.Fatalf("Second GetPackageName(%s) error = %v", importPath, err)
	}

	if pkgName1 != pkgName2 {
		t.Errorf("Cache inconsistency: first call returned %s, second call returned %s", pkgName1, pkgName2)
	}

	if pkgName1 != "fmt" {
		t.Errorf("GetPackageName(%s) = %s, want fmt", importPath, pkgName1)
	}
}

// TestPackageNameResolver_Fallback 解析失败时降级为路径最后一段
func TestPackageNameResolver_Fallback(t *testing.T) {
	projectRoot := findTestProjectRoot(t)
	resolver := NewPackageNameResolver(projectRoot)

	importPath := "github.com/nonexistent/fakepkg"

	pkgName, err := resolver.GetPackageName(importPath)
	if err != nil {
		t.Fatalf("GetPackageName() error = %v", err)
	}
	if pkgName != "fakepkg" {
		t.Errorf("expected fallback 'fakepkg', got '%s'", pkgName)
	}

	// 降级结果也进缓存，重复查询不再走磁盘
	cached, ok := resolver.cache.GetByImportPath(importPath)
	if !ok {
		t.Error("expected fallback result to be cached")
	}
	if cached != "fakepkg" {
		t.Errorf("cached name = %q, want fakepkg", cached)
	}
}

func TestEncodeModulePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"github.com/samber/lo", "github.com/samber/lo"},
		{"github.com/Masterminds/sprig", "github.com/!masterminds/sprig"},
		{"github.com/BurntSushi/toml", "github.com/!burnt!sushi/toml"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := encodeModulePath(tt.input); got != tt.expected {
				t.Errorf("encodeModulePath(%s) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func findTestProjectRoot(t *testing.T) string {
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("未找到项目根目录")
		}
		dir = parent
	}
}
