package middleware

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/http/mime"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/router"
	"github.com/jellydator/ttlcache/v3"
)

type StaticOptions struct {
	// CacheTTL is how long a read file is served from memory. Zero disables caching.
	CacheTTL time.Duration
	// CacheCapacity limits the number of cached files.
	CacheCapacity uint64
}

type cachedFile struct {
	data        []byte
	contentType mime.MIME
}

// Static serves files from the root directory for GET and HEAD requests whose path
// starts with the prefix. Paths escaping the root, including through symbolic links,
// are answered with 403 Forbidden. Requests for missing files and directories are passed further.
func Static(prefix, root string, opts StaticOptions) router.Middleware {
	var cache *ttlcache.Cache[string, cachedFile]
	if opts.CacheTTL > 0 {
		cacheOpts := []ttlcache.Option[string, cachedFile]{
			ttlcache.WithTTL[string, cachedFile](opts.CacheTTL),
		}
		if opts.CacheCapacity > 0 {
			cacheOpts = append(cacheOpts, ttlcache.WithCapacity[string, cachedFile](opts.CacheCapacity))
		}

		cache = ttlcache.New(cacheOpts...)
	}

	return router.Func(func(req *http.Request, resp *http.Response, _ *appctx.Context) (router.Result, error) {
		if req.Method != method.GET && req.Method != method.HEAD {
			return router.Next, nil
		}

		rel, found := strings.CutPrefix(req.Path, prefix)
		if !found || (len(rel) > 0 && rel[0] != '/' && !strings.HasSuffix(prefix, "/")) {
			return router.Next, nil
		}

		if !isSafe(rel) {
			return router.FinishStatus(resp, status.Forbidden, "403 Forbidden")
		}

		path, err := confine(root, filepath.Join(root, filepath.FromSlash(rel)))
		switch {
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
			return router.Next, nil
		case errors.Is(err, errOutsideRoot), errors.Is(err, fs.ErrPermission):
			return router.FinishStatus(resp, status.Forbidden, "403 Forbidden")
		case err != nil:
			return router.End, err
		}

		if cache != nil {
			if item := cache.Get(path); item != nil {
				return serveFile(resp, item.Value())
			}
		}

		file, err := readFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, errIsDir):
			return router.Next, nil
		case errors.Is(err, fs.ErrPermission):
			return router.FinishStatus(resp, status.Forbidden, "403 Forbidden")
		case err != nil:
			return router.End, err
		}

		if cache != nil {
			cache.Set(path, file, ttlcache.DefaultTTL)
		}

		return serveFile(resp, file)
	})
}

var (
	errIsDir       = errors.New("is a directory")
	errOutsideRoot = errors.New("path leads outside of the root")
)

// confine resolves symbolic links of the path and makes sure the result stays under
// the resolved root.
func confine(root, path string) (string, error) {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", err
	}

	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}

	return realPath, nil
}

func readFile(path string) (cachedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cachedFile{}, err
	}

	if info.IsDir() {
		return cachedFile{}, errIsDir
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cachedFile{}, err
	}

	return cachedFile{
		data:        data,
		contentType: mime.ByExtension(filepath.Ext(path)),
	}, nil
}

func serveFile(resp *http.Response, file cachedFile) (router.Result, error) {
	resp.ContentType(file.contentType)
	return router.FinishBytes(resp, file.data)
}

// isSafe rejects paths containing parent directory segments.
func isSafe(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return false
		}
	}

	return !strings.ContainsRune(path, '\\') && !strings.ContainsRune(path, 0)
}
