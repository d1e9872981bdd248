package scene

// sceneFile is the root JSON document: a Renderer configuration plus the
// flat list of entities that populate the world.
type sceneFile struct {
	Renderer *rendererSpec `json:"Renderer"`
	Entity   []entitySpec  `json:"Entity"`
}

type rendererSpec struct {
	Type    string      `json:"Type"`
	Depth   *int        `json:"Depth"`
	Sampler samplerSpec `json:"Sampler"`
	Camera  cameraSpec  `json:"Camera"`
}

type samplerSpec struct {
	Type string `json:"Type"`
	SPP  *int   `json:"SPP"`
}

type cameraSpec struct {
	Type    string      `json:"Type"`
	Fov     float64     `json:"Fov"`
	Eye     [3]float64  `json:"Eye"`
	Focus   [3]float64  `json:"Focus"`
	WorldUp *[3]float64 `json:"WorldUp"`
	Film    filmSpec    `json:"Film"`
}

type filmSpec struct {
	Resolution *[2]int     `json:"Resolution"`
	Filename   string      `json:"Filename"`
	CropMin    *[2]float64 `json:"CropMin"`
	CropMax    *[2]float64 `json:"CropMax"`
	Diagonal   *float64    `json:"Diagonal"`
	Scale      *float64    `json:"Scale"`
	MaxLum     *float64    `json:"MaxLum"`
	Filter     filterSpec  `json:"Filter"`
}

type filterSpec struct {
	Type   string      `json:"Type"`
	Radius *[2]float64 `json:"Radius"`
}

// entitySpec covers both Entity ("Type":"Entity", single Shape) and
// MeshEntity ("Type":"MeshEntity", Filename loads a triangle mesh) forms;
// fields irrelevant to one form are simply left zero.
type entitySpec struct {
	Type      string       `json:"Type"`
	Shape     shapeSpec    `json:"Shape"`
	Filename  string       `json:"Filename"`
	Transform []float64    `json:"Transform"`
	Material  materialSpec `json:"Material"`
	Light     *lightSpec   `json:"Light"`
}

type shapeSpec struct {
	Type      string    `json:"Type"`
	Radius    float64   `json:"Radius"`
	Transform []float64 `json:"Transform"`
}

type materialSpec struct {
	Type string     `json:"Type"`
	R    [3]float64 `json:"R"`
}

type lightSpec struct {
	Type         string     `json:"Type"`
	Radiance     [3]float64 `json:"Radiance"`
	TwoSided     bool       `json:"TwoSided"`
	LightSamples *int       `json:"LightSamples"`
}
