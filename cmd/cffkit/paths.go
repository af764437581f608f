package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samcharles93/cffkit/internal/logger"
	"github.com/samcharles93/cffkit/internal/reload"
	"github.com/samcharles93/cffkit/internal/spellforce"
	"github.com/samcharles93/cffkit/pkg/cff"
)

const (
	envDataFile = "CFFKIT_DATA_FILE"
	envGameDir  = "CFFKIT_GAME_DIR"
)

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

// stdout receives command output.
var stdout io.Writer = os.Stdout

// resolveDataFile picks the file to work on: the --data flag, then the
// CFFKIT_DATA_FILE variable, then the .cff files of CFFKIT_GAME_DIR.
func resolveDataFile(dataFlag string, stdin io.Reader, stderr io.Writer) (string, error) {
	dataFlag = strings.TrimSpace(dataFlag)
	if dataFlag != "" {
		return filepath.Clean(dataFlag), nil
	}
	if env := strings.TrimSpace(os.Getenv(envDataFile)); env != "" {
		return filepath.Clean(env), nil
	}

	gameDir := strings.TrimSpace(os.Getenv(envGameDir))
	if gameDir == "" {
		return "", fmt.Errorf("--data is required unless %s or %s is set", envDataFile, envGameDir)
	}
	files, err := discoverDataFiles(gameDir)
	if err != nil {
		return "", err
	}
	switch len(files) {
	case 0:
		return "", fmt.Errorf("no .cff files found in %s", gameDir)
	case 1:
		_, _ = fmt.Fprintf(stderr, "cffkit: using data file %s\n", files[0])
		return files[0], nil
	default:
		if !stdinIsTTY() {
			return "", fmt.Errorf(
				"multiple data files found in %s but stdin is not interactive; set --data",
				gameDir,
			)
		}
		return selectDataFileInteractively(gameDir, files, stdin, stderr)
	}
}

// discoverDataFiles lists the .cff files in dir and in its data subdirectory,
// where the game installs them.
func discoverDataFiles(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("game directory is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("game path is not a directory: %s", dir)
	}

	var files []string
	for _, d := range []string{dir, filepath.Join(dir, "data")} {
		ents, err := os.ReadDir(d)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range ents {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".cff") {
				continue
			}
			files = append(files, filepath.Join(d, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func selectDataFileInteractively(gameDir string, files []string, stdin io.Reader, stderr io.Writer) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no data files available in %s", gameDir)
	}

	_, _ = fmt.Fprintf(stderr, "cffkit: select a data file from %s\n", gameDir)
	for i, f := range files {
		_, _ = fmt.Fprintf(stderr, "%d. %s\n", i+1, displayName(gameDir, f))
	}

	reader := bufio.NewReader(stdin)
	for {
		_, _ = fmt.Fprintf(stderr, "cffkit: enter selection [1-%d]: ", len(files))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no selection provided on stdin; set --data")
			}
			continue
		}

		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 1 || idx > len(files) {
			_, _ = fmt.Fprintf(stderr, "cffkit: invalid selection %q\n", line)
			if errors.Is(err, io.EOF) {
				return "", errors.New("invalid selection provided on stdin; set --data")
			}
			continue
		}
		return files[idx-1], nil
	}
}

func displayName(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return filepath.Base(path)
	}
	return rel
}

// loadCatalogs returns the built-in catalogs, or those of the YAML file at path.
func loadCatalogs(path string) ([]*cff.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return spellforce.Catalogs(), nil
	}
	return spellforce.ReadCatalogs(path)
}

// pickCatalog returns the catalog named version, or the one detected from data.
func pickCatalog(cats []*cff.Catalog, version string, data []byte) (*cff.Catalog, error) {
	if version == "" {
		return cff.DetectCatalog(data, cats)
	}
	for _, c := range cats {
		if c.Version == version {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown game version %q", version)
}

func newLoader(cats []*cff.Catalog, version string, log logger.Logger) reload.Loader {
	return func(data []byte) (*cff.GameData, error) {
		cat, err := pickCatalog(cats, version, data)
		if err != nil {
			return nil, err
		}
		return cff.Load(data, cat, cff.WithLogger(log))
	}
}

// openDataFile resolves, reads and decodes the data file named by the flags.
func openDataFile(ctx context.Context, path string) (*cff.GameData, error) {
	log := logger.FromContext(ctx)
	cats, err := loadCatalogs(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	data, err := cff.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := newLoader(cats, gameVersion, log)(data)
	if err != nil {
		return nil, err
	}
	log.Debug("opened data file", "path", path, "version", g.Catalog().Version)
	return g, nil
}

// writeBackup copies path to path+".bak".
func writeBackup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := path + ".bak"
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", err
	}
	return backup, nil
}

func isTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
