package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/charlievieth/fastwalk"

	"github.com/bantamhq/arbor/internal/tree"
)

var (
	ErrRepoNotFound = errors.New("repository not found")
	ErrPathNotFound = errors.New("path not found")
	ErrConflict     = errors.New("target already exists")
	ErrInvalidPath  = errors.New("invalid path")
)

// TrashcanText is the label of the trash can root.
const TrashcanText = "Trash Can"

// RepoDescriptor is one [[repo]] entry of repos.toml.
type RepoDescriptor struct {
	Key         string        `toml:"key"`
	Type        tree.RepoType `toml:"type"`
	PackageType string        `toml:"package_type"`
}

type reposFile struct {
	Repo []RepoDescriptor `toml:"repo"`
}

// Repos serves repositories laid out as directories under
// <data_dir>/repos/<key>. Trashed items live under <data_dir>/trash/<key>.
type Repos struct {
	dataDir string
	repos   []RepoDescriptor
}

var archiveSuffixes = []string{
	".zip", ".jar", ".war", ".ear", ".tgz", ".tar.gz", ".tar", ".nupkg",
	".whl", ".gem", ".rpm", ".deb", ".apk", ".box", ".crate",
}

// LoadRepos reads <data_dir>/repos.toml. Without one, every directory under
// <data_dir>/repos is served as a generic local repository.
func LoadRepos(dataDir string) (*Repos, error) {
	for _, dir := range []string{"repos", "trash"} {
		if err := os.MkdirAll(filepath.Join(dataDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", dir, err)
		}
	}

	r := &Repos{dataDir: dataDir}

	var file reposFile
	_, err := toml.DecodeFile(filepath.Join(dataDir, "repos.toml"), &file)
	switch {
	case err == nil:
		for _, d := range file.Repo {
			if err := ValidateRepoKey(d.Key); err != nil {
				return nil, fmt.Errorf("repos.toml: %w", err)
			}
			if d.Type == "" {
				d.Type = tree.RepoLocal
			}
			if d.PackageType == "" {
				d.PackageType = "generic"
			}
			if err := os.MkdirAll(filepath.Join(dataDir, "repos", d.Key), 0755); err != nil {
				return nil, fmt.Errorf("create repository %s: %w", d.Key, err)
			}
			r.repos = append(r.repos, d)
		}
	case errors.Is(err, iofs.ErrNotExist):
		entries, err := os.ReadDir(filepath.Join(dataDir, "repos"))
		if err != nil {
			return nil, fmt.Errorf("read repos directory: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() || ValidateRepoKey(e.Name()) != nil {
				continue
			}
			r.repos = append(r.repos, RepoDescriptor{Key: e.Name(), Type: tree.RepoLocal, PackageType: "generic"})
		}
	default:
		return nil, fmt.Errorf("parse repos.toml: %w", err)
	}

	return r, nil
}

func (r *Repos) descriptor(key string) (RepoDescriptor, bool) {
	if key == tree.TrashcanRepoKey {
		return RepoDescriptor{Key: key}, true
	}
	i := slices.IndexFunc(r.repos, func(d RepoDescriptor) bool { return d.Key == key })
	if i < 0 {
		return RepoDescriptor{}, false
	}
	return r.repos[i], true
}

// resolve maps a repository key and relative path to a location on disk.
func (r *Repos) resolve(key, rel string) (string, error) {
	if _, ok := r.descriptor(key); !ok {
		return "", fmt.Errorf("%s: %w", key, ErrRepoNotFound)
	}
	base := filepath.Join(r.dataDir, "repos", key)
	if key == tree.TrashcanRepoKey {
		base = filepath.Join(r.dataDir, "trash")
	}
	return SafeJoin(base, rel)
}

// Roots lists every repository followed by the trash can.
func (r *Repos) Roots() []tree.Info {
	infos := make([]tree.Info, 0, len(r.repos)+1)
	for _, d := range r.repos {
		infos = append(infos, tree.Info{
			RepoKey:     d.Key,
			Text:        d.Key,
			Type:        tree.TypeRepository,
			RepoType:    d.Type,
			PackageType: d.PackageType,
			HasChildren: true,
		})
	}
	return append(infos, tree.Info{
		RepoKey:     tree.TrashcanRepoKey,
		Text:        TrashcanText,
		Type:        tree.TypeTrashcan,
		HasChildren: true,
	})
}

// Children lists the entries directly below rel. With compact set, chains
// of folders that each hold a single folder are folded into one entry.
func (r *Repos) Children(key, rel string, compact bool) ([]tree.Info, error) {
	dir, err := r.resolve(key, rel)
	if err != nil {
		return nil, err
	}
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	rel = strings.Trim(rel, "/")
	infos := make([]tree.Info, 0, len(entries))
	for _, e := range entries {
		p := path.Join(rel, e.Name())
		if !e.IsDir() {
			infos = append(infos, fileInfo(key, p, e.Name()))
			continue
		}

		info := tree.Info{RepoKey: key, Path: p, Text: e.Name(), Type: tree.TypeFolder}
		subDir := filepath.Join(dir, e.Name())
		sub, _ := readDir(subDir)
		for compact && len(sub) == 1 && sub[0].IsDir() {
			info.Path = path.Join(info.Path, sub[0].Name())
			info.Text += "/" + sub[0].Name()
			subDir = filepath.Join(subDir, sub[0].Name())
			sub, _ = readDir(subDir)
		}
		info.HasChildren = len(sub) > 0
		infos = append(infos, info)
	}
	return infos, nil
}

func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	return entries, nil
}

func fileInfo(key, p, name string) tree.Info {
	typ := tree.TypeFile
	lower := strings.ToLower(name)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			typ = tree.TypeArchive
			break
		}
	}
	return tree.Info{
		RepoKey:  key,
		Path:     p,
		Text:     name,
		Type:     typ,
		MimeType: mime.TypeByExtension(path.Ext(name)),
	}
}

// Info returns the metadata of one entry. Files are hashed on every call.
func (r *Repos) Info(key, rel string) (*tree.Metadata, error) {
	p, err := r.resolve(key, rel)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(p)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}

	meta := &tree.Metadata{
		Created:  st.ModTime(),
		Modified: st.ModTime(),
	}
	if st.IsDir() {
		entries, err := readDir(p)
		if err != nil {
			return nil, err
		}
		meta.ChildCount = len(entries)
		if d, ok := r.descriptor(key); ok && strings.Trim(rel, "/") == "" {
			meta.Description = fmt.Sprintf("%s %s repository", d.Type, d.PackageType)
		}
		return meta, nil
	}

	meta.Size = st.Size()
	meta.MimeType = mime.TypeByExtension(filepath.Ext(p))
	sum, err := hashFile(p)
	if err != nil {
		return nil, err
	}
	meta.SHA256 = sum
	return meta, nil
}

func hashFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Delete moves an entry to the trash can. Entries already in the trash
// can are removed for good. Deleting a repository root empties it.
func (r *Repos) Delete(key, rel string) error {
	src, err := r.resolve(key, rel)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); errors.Is(err, iofs.ErrNotExist) {
		return ErrPathNotFound
	}

	rel = strings.Trim(rel, "/")
	if key == tree.TrashcanRepoKey {
		if rel == "" {
			return emptyDir(src)
		}
		return os.RemoveAll(src)
	}

	if rel == "" {
		entries, err := readDir(src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := r.Delete(key, e.Name()); err != nil {
				return err
			}
		}
		return nil
	}

	dst, err := r.resolve(tree.TrashcanRepoKey, path.Join(key, rel))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear trashed %s: %w", rel, err)
	}
	return moveTree(src, dst)
}

func emptyDir(dir string) error {
	entries, err := readDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Move relocates an entry into the target folder and returns its new path.
func (r *Repos) Move(key, rel, toKey, toFolder string) (string, error) {
	return r.transfer(key, rel, toKey, toFolder, moveTree)
}

// Copy duplicates an entry into the target folder and returns its new path.
func (r *Repos) Copy(key, rel, toKey, toFolder string) (string, error) {
	return r.transfer(key, rel, toKey, toFolder, copyTree)
}

func (r *Repos) transfer(key, rel, toKey, toFolder string, op func(src, dst string) error) (string, error) {
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return "", fmt.Errorf("cannot transfer a repository root: %w", ErrConflict)
	}
	src, err := r.resolve(key, rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(src); errors.Is(err, iofs.ErrNotExist) {
		return "", ErrPathNotFound
	}

	newPath := path.Join(strings.Trim(toFolder, "/"), path.Base(rel))
	dst, err := r.resolve(toKey, newPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("%s/%s: %w", toKey, newPath, ErrConflict)
	}
	if strings.HasPrefix(dst, src+string(filepath.Separator)) {
		return "", fmt.Errorf("cannot transfer %s into itself: %w", rel, ErrConflict)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create target folder: %w", err)
	}
	if err := op(src, dst); err != nil {
		return "", err
	}
	return newPath, nil
}

func moveTree(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyTree(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// copyTree copies a file or a directory recursively.
func copyTree(src, dst string) error {
	st, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !st.IsDir() {
		return copyFile(src, dst, st.Mode())
	}

	type copyItem struct {
		srcPath string
		dstPath string
		isDir   bool
		mode    iofs.FileMode
	}
	var items []copyItem
	var itemsMu sync.Mutex

	conf := &fastwalk.Config{Follow: true}
	srcLen := len(src)

	err = fastwalk.Walk(conf, src, func(fullPath string, d iofs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		relPath := strings.TrimLeft(fullPath[srcLen:], `/\`)
		if relPath == "" {
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			return err
		}

		itemsMu.Lock()
		items = append(items, copyItem{
			srcPath: fullPath,
			dstPath: filepath.Join(dst, relPath),
			isDir:   info.IsDir(),
			mode:    info.Mode(),
		})
		itemsMu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", src, err)
	}

	if err := os.MkdirAll(dst, st.Mode().Perm()); err != nil {
		return err
	}

	// Parents before children, directories before files.
	sort.Slice(items, func(i, j int) bool {
		if items[i].isDir != items[j].isDir {
			return items[i].isDir
		}
		return len(items[i].dstPath) < len(items[j].dstPath)
	})

	for _, item := range items {
		if item.isDir {
			if err := os.MkdirAll(item.dstPath, item.mode.Perm()); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(item.srcPath, item.dstPath, item.mode); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, mode iofs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// Search walks every repository for files whose name matches the shell
// pattern, case-insensitively. The trash can is not searched.
func (r *Repos) Search(pattern string) ([]tree.Info, error) {
	pattern = strings.ToLower(pattern)
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var found []tree.Info
	var mu sync.Mutex

	for _, d := range r.repos {
		base := filepath.Join(r.dataDir, "repos", d.Key)
		baseLen := len(base)
		conf := &fastwalk.Config{Follow: true}

		err := fastwalk.Walk(conf, base, func(fullPath string, e iofs.DirEntry, walkErr error) error {
			if walkErr != nil || e.IsDir() {
				return nil
			}
			if ok, _ := path.Match(pattern, strings.ToLower(e.Name())); !ok {
				return nil
			}
			rel := filepath.ToSlash(strings.TrimLeft(fullPath[baseLen:], `/\`))
			info := fileInfo(d.Key, rel, e.Name())
			info.RepoType = d.Type
			info.PackageType = d.PackageType

			mu.Lock()
			found = append(found, info)
			mu.Unlock()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", d.Key, err)
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].RepoKey != found[j].RepoKey {
			return found[i].RepoKey < found[j].RepoKey
		}
		return found[i].Path < found[j].Path
	})
	return found, nil
}

// Item describes a stashed location, or reports false when it is gone.
func (r *Repos) Item(key, rel string) (tree.Info, bool) {
	d, ok := r.descriptor(key)
	if !ok || key == tree.TrashcanRepoKey {
		return tree.Info{}, false
	}
	p, err := r.resolve(key, rel)
	if err != nil {
		return tree.Info{}, false
	}
	st, err := os.Stat(p)
	if err != nil {
		return tree.Info{}, false
	}

	rel = strings.Trim(rel, "/")
	info := fileInfo(key, rel, path.Base(rel))
	if st.IsDir() {
		info = tree.Info{RepoKey: key, Path: rel, Text: path.Base(rel), Type: tree.TypeFolder, HasChildren: true}
	}
	info.RepoType = d.Type
	info.PackageType = d.PackageType
	return info, true
}
