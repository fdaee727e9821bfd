package metadata

type ResourceType int

/** @brief Resource types the asset manager knows how to load. */
const (
	/** @brief Not a recognised asset. */
	ResourceTypeNone ResourceType = iota
	/** @brief Image decoded into a float colour buffer. */
	ResourceTypeImage
	/** @brief TOML pipeline configuration. */
	ResourceTypePipelineConfig
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeImage:
		return "image"
	case ResourceTypePipelineConfig:
		return "pipeline-config"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the source file in bytes. */
	DataSize uint64
	/** @brief The resource data. *Buffer for images, PipelineConfig for configs. */
	Data interface{}
}
