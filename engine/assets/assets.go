package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima-temporal/engine/assets/loaders"
	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes the asset directory and watches it, and any
// registered configuration file, for changes. A changed configuration file
// is reloaded on the watcher goroutine and posted as
// EVENT_CODE_CONFIG_RELOADED, so the frame thread applies it between frames.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader
	configs map[string]struct{}

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		configs:  make(map[string]struct{}),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(metadata.ResourceTypeImage, &loaders.TextureLoader{})
	am.registerLoader(metadata.ResourceTypePipelineConfig, &loaders.PipelineConfigLoader{})

	go am.start()

	return am, nil
}

// Initialize indexes and watches assetsDir and all its sub-directories. A
// missing directory is not an error; the pipeline runs without assets.
func (am *AssetManager) Initialize(assetsDir string) error {
	if assetsDir == "" {
		return nil
	}
	if _, err := os.Stat(assetsDir); errors.Is(err, os.ErrNotExist) {
		core.LogWarn("asset directory not found", "path", assetsDir)
		return nil
	}
	return am.addRecursive(assetsDir)
}

// WatchConfig registers path as a pipeline configuration file. Its parent
// directory is watched so editors that replace the file are noticed too.
func (am *AssetManager) WatchConfig(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	am.mutex.Lock()
	am.configs[abs] = struct{}{}
	am.mutex.Unlock()
	return am.add(filepath.Dir(abs))
}

// Add starts watching the named file or directory (non-recursively).
func (am *AssetManager) add(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	return am.fsnotify.Add(name)
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name, false)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads path with the loader registered for resourceType.
func (am *AssetManager) LoadAsset(path string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", resourceType)
	}
	res, err := loader.Load(path, resourceType, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{Path: path, Type: resourceType, LastLoaded: time.Now()}
	am.mutex.Unlock()
	return res, nil
}

// LoadPipelineConfig loads and validates a TOML pipeline file.
func (am *AssetManager) LoadPipelineConfig(path string) (metadata.PipelineConfig, error) {
	res, err := am.LoadAsset(path, metadata.ResourceTypePipelineConfig, nil)
	if err != nil {
		return metadata.PipelineConfig{}, err
	}
	return res.Data.(metadata.PipelineConfig), nil
}

// LoadTexture decodes an image into a linear colour buffer.
func (am *AssetManager) LoadTexture(path string) (*metadata.Buffer, error) {
	res, err := am.LoadAsset(path, metadata.ResourceTypeImage, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.Buffer), nil
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return nil
	}
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return nil
	}
	return loader.Unload(asset)
}

// Assets returns the indexed paths of type t, sorted.
func (am *AssetManager) Assets(t metadata.ResourceType) []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	var out []string
	for path, info := range am.assets {
		if info.Type == t {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// Shutdown stops the watcher goroutine and releases the watcher.
func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.watchRecursive(e.Name, false)
				}
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
				am.reloadConfig(e.Name)
			}
			if e.Op&fsnotify.Remove != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// reloadConfig parses a changed configuration file and posts it. An invalid
// file is logged and dropped, so the running configuration stays in effect.
func (am *AssetManager) reloadConfig(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}
	am.mutex.RLock()
	_, watched := am.configs[abs]
	am.mutex.RUnlock()
	if !watched {
		return
	}

	cfg, err := am.LoadPipelineConfig(abs)
	if err != nil {
		core.LogError("pipeline config reload rejected", "path", abs, "err", err)
		return
	}
	core.LogInfo("pipeline config reloaded", "path", abs)
	core.EventPost(core.EVENT_CODE_CONFIG_RELOADED, am, core.EventContext{
		Type:    core.EVENT_CODE_CONFIG_RELOADED,
		Payload: cfg,
	})
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".tga", ".png", ".jpg", ".jpeg":
		return metadata.ResourceTypeImage
	case ".toml":
		return metadata.ResourceTypePipelineConfig
	default:
		return metadata.ResourceTypeNone
	}
}
