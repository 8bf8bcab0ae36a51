package graphics

// Program names shared by the renderer and devices that provide programs
// natively instead of compiling GLSL.
const (
	ProgramGeometry         = "geometry"
	ProgramAmbientLight     = "lighting.ambient"
	ProgramDirectionalLight = "lighting.directional"
	ProgramPointLight       = "lighting.point"
	ProgramSpotLight        = "lighting.spot"
)

// Sampler slots the lighting programs read the G-buffer from.
const (
	SlotColour   = 0
	SlotPosition = 1
	SlotNormal   = 2
	SlotLighting = 3
)

// GBufferSamplers maps each sampler uniform to its slot, in slot order.
var GBufferSamplers = [4]string{"colourMap", "positionMap", "normalMap", "lightingMap"}
