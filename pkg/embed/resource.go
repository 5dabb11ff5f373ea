package embed

import (
	"slices"
	"sync"
)

// Resource discriminates embed kinds. It is stored as the "resource" attribute.
type Resource string

const (
	ResourceImage         Resource = "image"
	ResourceBrightcove    Resource = "brightcove"
	ResourceExternal      Resource = "external"
	ResourceIframe        Resource = "iframe"
	ResourceH5P           Resource = "h5p"
	ResourceConcept       Resource = "concept"
	ResourceGloss         Resource = "gloss"
	ResourceContactBlock  Resource = "contact-block"
	ResourceKeyFigure     Resource = "key-figure"
	ResourceCampaignBlock Resource = "campaign-block"
	ResourceFile          Resource = "file"
	ResourceError         Resource = "error"
)

// Data is implemented by every typed embed payload.
type Data interface {
	Resource() Resource
}

type constructor func(Resource) Data

var (
	registryMu sync.RWMutex
	registry   = map[Resource]constructor{
		ResourceImage:         func(Resource) Data { return &ImageEmbed{} },
		ResourceBrightcove:    func(Resource) Data { return &BrightcoveEmbed{} },
		ResourceExternal:      func(r Resource) Data { return &ExternalEmbed{Kind: r} },
		ResourceIframe:        func(r Resource) Data { return &ExternalEmbed{Kind: r} },
		ResourceH5P:           func(Resource) Data { return &H5PEmbed{} },
		ResourceConcept:       func(r Resource) Data { return &ConceptEmbed{Kind: r} },
		ResourceGloss:         func(r Resource) Data { return &ConceptEmbed{Kind: r} },
		ResourceContactBlock:  func(Resource) Data { return &ContactBlockEmbed{} },
		ResourceKeyFigure:     func(Resource) Data { return &KeyFigureEmbed{} },
		ResourceCampaignBlock: func(Resource) Data { return &CampaignBlockEmbed{} },
		ResourceFile:          func(Resource) Data { return &FileEmbed{} },
	}
)

// Register adds a new embed kind. The constructor must return a pointer to a
// struct whose fields carry "attr" tags. Registering an existing resource
// replaces it.
func Register(r Resource, newData func() Data) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[r] = func(Resource) Data { return newData() }
}

// IsRegistered reports whether the resource has a registered embed kind.
func IsRegistered(r Resource) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[r]
	return ok
}

// Registered returns all registered resources sorted by name.
func Registered() []Resource {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Resource, 0, len(registry))
	for r := range registry {
		result = append(result, r)
	}
	slices.Sort(result)
	return result
}

func lookup(r Resource) (constructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[r]
	return c, ok
}
