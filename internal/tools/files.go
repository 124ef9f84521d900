package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/iris/domain/repositories"
)

const (
	searchMaxDepth   = 4
	searchMaxResults = 5
	readMaxChars     = 2000
)

var searchIgnoredDirs = map[string]bool{
	"node_modules":  true,
	".git":          true,
	"AppData":       true,
	"Program Files": true,
	"Windows":       true,
}

var errSearchDone = errors.New("search done")

type fileTools struct {
	home   string
	system repositories.SystemControl
	logger *zap.Logger
}

// resolve expands "~" and bare well-known folder names relative to the home directory.
func (f *fileTools) resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "~" {
		return f.home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(f.home, p[2:])
	}
	if !filepath.IsAbs(p) && f.home != "" {
		return filepath.Join(f.home, p)
	}
	return p
}

func (f *fileTools) searchFiles() Tool {
	return Tool{
		Declaration: declare(SearchFiles, "Search for a file path in the system.", object(map[string]*genai.Schema{
			"file_name": str("Name of the file."),
			"location":  str("Specific folder (optional)."),
		}, "file_name")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			name, err := args.RequireString("file_name")
			if err != nil {
				return "", err
			}
			root := f.home
			if loc := args.String("location"); loc != "" {
				root = f.resolve(loc)
			}
			matches, err := searchFiles(ctx, root, name)
			if err != nil {
				return "", err
			}
			if len(matches) == 0 {
				return "No files found.", nil
			}
			return strings.Join(matches, "\n"), nil
		},
	}
}

// searchFiles walks root up to searchMaxDepth levels and returns the first
// files whose base name contains needle, ignoring case.
func searchFiles(ctx context.Context, root, needle string) ([]string, error) {
	needle = strings.ToLower(needle)
	root = filepath.Clean(root)
	rootDepth := strings.Count(root, string(filepath.Separator))
	var matches []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && searchIgnoredDirs[d.Name()] {
				return fs.SkipDir
			}
			if strings.Count(path, string(filepath.Separator))-rootDepth >= searchMaxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if strings.Contains(strings.ToLower(d.Name()), needle) {
			matches = append(matches, path)
			if len(matches) >= searchMaxResults {
				return errSearchDone
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errSearchDone) {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}
	return matches, nil
}

func (f *fileTools) readFile() Tool {
	return Tool{
		Declaration: declare(ReadFile, "Read the text content of a file.", object(map[string]*genai.Schema{
			"file_path": str("The absolute path to the file."),
		}, "file_path")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			path, err := args.RequireString("file_path")
			if err != nil {
				return "", err
			}
			data, err := os.ReadFile(f.resolve(path))
			if err != nil {
				return "", fmt.Errorf("failed to read file: %w", err)
			}
			content := []rune(string(data))
			if len(content) > readMaxChars {
				return string(content[:readMaxChars]) + "\n...(Truncated)", nil
			}
			return string(content), nil
		},
	}
}

func (f *fileTools) writeFile() Tool {
	return Tool{
		Declaration: declare(WriteFile, "Write text to a file (creates or overwrites).", object(map[string]*genai.Schema{
			"file_name": str("File name (e.g. notes.txt) or full path."),
			"content":   str("The text content to write."),
		}, "file_name", "content")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			name, err := args.RequireString("file_name")
			if err != nil {
				return "", err
			}
			target := f.resolve(name)
			if !strings.ContainsAny(name, `/\`) {
				target = filepath.Join(f.home, "Desktop", name)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
			if err := os.WriteFile(target, []byte(args.String("content")), 0o644); err != nil {
				return "", fmt.Errorf("failed to write file: %w", err)
			}
			f.logger.Info("File written", zap.String("path", target))
			return "Success. File saved to: " + target, nil
		},
	}
}

func (f *fileTools) manageFile() Tool {
	return Tool{
		Declaration: declare(ManageFile, "Manage files: Copy, Move (Cut/Paste), or Delete them.", object(map[string]*genai.Schema{
			"operation":   str("The action to perform.", "copy", "move", "delete"),
			"source_path": str("The file to act on."),
			"dest_path":   str("Destination path (Required for copy/move, ignore for delete)."),
		}, "operation", "source_path")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			op := strings.ToLower(args.String("operation"))
			source, err := args.RequireString("source_path")
			if err != nil {
				return "", err
			}
			source = f.resolve(source)
			dest := args.String("dest_path")
			if dest != "" {
				dest = f.resolve(dest)
			}

			switch op {
			case "copy":
				if dest == "" {
					return "Error: Destination path required for copy.", nil
				}
				if err := copyPath(source, dest); err != nil {
					return "", fmt.Errorf("failed to copy: %w", err)
				}
				return "Success: Copied to " + dest, nil
			case "move":
				if dest == "" {
					return "Error: Destination path required for move.", nil
				}
				if err := os.Rename(source, dest); err != nil {
					return "", fmt.Errorf("failed to move: %w", err)
				}
				return "Success: Moved to " + dest, nil
			case "delete":
				if err := os.RemoveAll(source); err != nil {
					return "", fmt.Errorf("failed to delete: %w", err)
				}
				return "Success: Deleted " + source, nil
			default:
				return fmt.Sprintf("Error: Unknown operation '%s'", op), nil
			}
		},
	}
}

func copyPath(source, dest string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.CopyFS(dest, os.DirFS(source))
	}

	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (f *fileTools) openFile() Tool {
	return Tool{
		Declaration: declare(OpenFile, "Open a file in its default system application. Use this after creating a file or when the user asks to see something.", object(map[string]*genai.Schema{
			"file_path": str("The absolute path to the file."),
		}, "file_path")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			path, err := args.RequireString("file_path")
			if err != nil {
				return "", err
			}
			path = f.resolve(path)
			if _, err := os.Stat(path); err != nil {
				return "", fmt.Errorf("file not found: %w", err)
			}
			if err := f.system.OpenPath(ctx, path); err != nil {
				return "", err
			}
			return "Opened " + path, nil
		},
	}
}

func (f *fileTools) readDirectory() Tool {
	return Tool{
		Declaration: declare(ReadDirectory, `Scan a directory (folder) to see what files are inside. Use this to check contents of "Desktop", "Downloads", etc. Returns a list of files with metadata (name, type, size).`, object(map[string]*genai.Schema{
			"directory_path": str(`The folder path (e.g. "Desktop", "Documents", "/home/user/projects").`),
		}, "directory_path")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			dir, err := args.RequireString("directory_path")
			if err != nil {
				return "", err
			}
			dir = f.resolve(dir)
			entries, err := os.ReadDir(dir)
			if err != nil {
				return "", fmt.Errorf("failed to read directory: %w", err)
			}
			if len(entries) == 0 {
				return "Directory is empty: " + dir, nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Contents of %s:\n", dir)
			for _, e := range entries {
				if e.IsDir() {
					fmt.Fprintf(&b, "- %s (folder)\n", e.Name())
					continue
				}
				var size int64
				if info, err := e.Info(); err == nil {
					size = info.Size()
				}
				fmt.Fprintf(&b, "- %s (file, %d bytes)\n", e.Name(), size)
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}
