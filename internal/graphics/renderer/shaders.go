package renderer

import (
	"deferred3d/internal/graphics"
	"deferred3d/internal/graphics/lighting"
)

const geometryVertexSrc = `
#version 410 core
layout(location = 0) in vec3 vertex_position;
layout(location = 1) in vec3 vertex_normal;
layout(location = 2) in vec2 vertex_uv;

uniform mat4 transform;
uniform mat4 viewTransform;
uniform mat4 projectionTransform;

out vec3 fragment_position;
out vec3 fragment_normal;
out vec2 fragment_uv;

void main() {
    vec4 world = transform * vec4(vertex_position, 1.0);
    fragment_position = world.xyz;
    fragment_normal = mat3(transpose(inverse(transform))) * vertex_normal;
    fragment_uv = vertex_uv;
    gl_Position = projectionTransform * viewTransform * world;
}
`

const geometryFragmentSrc = `
#version 410 core
in vec3 fragment_position;
in vec3 fragment_normal;
in vec2 fragment_uv;

uniform vec3 colour;
uniform bool useTexture;
uniform sampler2D textureSampler;
uniform float diffuseLightingIntensity;
uniform float specularLightingIntensity;
uniform float specularLightingPower;

layout(location = 0) out vec4 gbuffer_colour;
layout(location = 1) out vec3 gbuffer_position;
layout(location = 2) out vec3 gbuffer_normal;
layout(location = 3) out vec3 gbuffer_lighting;

void main() {
    vec4 c = vec4(colour, 1.0);
    if (useTexture) {
        c *= texture(textureSampler, fragment_uv);
    }
    gbuffer_colour = c;
    gbuffer_position = fragment_position;
    gbuffer_normal = normalize(fragment_normal);
    gbuffer_lighting = vec3(diffuseLightingIntensity, specularLightingIntensity, specularLightingPower);
}
`

const passThroughVertexSrc = `
#version 410 core
layout(location = 0) in vec3 vertex_position;

uniform mat4 transform;

void main() {
    gl_Position = transform * vec4(vertex_position, 1.0);
}
`

// lightingPrelude is shared by every light fragment shader. Lighting passes
// read the G-buffer at the fragment's own pixel.
const lightingPrelude = `
#version 410 core
uniform sampler2D colourMap;
uniform sampler2D positionMap;
uniform sampler2D normalMap;
uniform sampler2D lightingMap;

uniform vec2 screenSize;
uniform vec3 cameraPosition;
uniform vec3 lightColour;
uniform float lightIntensity;

out vec4 fragment_colour;

struct Surface {
    vec3 albedo;
    vec3 position;
    vec3 normal;
    vec3 material;
};

bool readSurface(out Surface s) {
    vec2 uv = gl_FragCoord.xy / screenSize;
    s.albedo = texture(colourMap, uv).rgb;
    s.position = texture(positionMap, uv).xyz;
    s.normal = texture(normalMap, uv).xyz;
    s.material = texture(lightingMap, uv).xyz;
    return dot(s.normal, s.normal) >= 0.5;
}

vec3 reflectance(Surface s, vec3 toLight) {
    float diffuse = max(dot(s.normal, toLight), 0.0) * s.material.x;
    vec3 view = normalize(cameraPosition - s.position);
    vec3 r = reflect(-toLight, s.normal);
    float specular = pow(max(dot(view, r), 0.0), s.material.z) * s.material.y;
    if (diffuse == 0.0) {
        specular = 0.0;
    }
    return s.albedo * diffuse + vec3(specular);
}

void emit(vec3 light) {
    fragment_colour = vec4(light * lightColour * lightIntensity, 0.0);
}
`

const ambientFragmentSrc = lightingPrelude + `
void main() {
    emit(texture(colourMap, gl_FragCoord.xy / screenSize).rgb);
}
`

const directionalFragmentSrc = lightingPrelude + `
uniform vec3 lightDirection;

void main() {
    Surface s;
    if (!readSurface(s)) {
        discard;
    }
    emit(reflectance(s, -lightDirection));
}
`

const pointPrelude = lightingPrelude + `
uniform vec3 lightPosition;
uniform vec3 lightAttenuation;

vec3 pointLighting(Surface s, out vec3 toLight) {
    vec3 delta = lightPosition - s.position;
    float d = length(delta);
    toLight = d > 0.0 ? delta / d : vec3(0.0);
    float attenuation = 1.0 / (lightAttenuation.x + d * lightAttenuation.y + d * d * lightAttenuation.z);
    return reflectance(s, toLight) * attenuation;
}
`

const pointFragmentSrc = pointPrelude + `
void main() {
    Surface s;
    if (!readSurface(s)) {
        discard;
    }
    vec3 toLight;
    emit(pointLighting(s, toLight));
}
`

const spotFragmentSrc = pointPrelude + `
uniform vec3 lightDirection;
uniform vec2 lightCutoff;

void main() {
    Surface s;
    if (!readSurface(s)) {
        discard;
    }
    vec3 toLight;
    vec3 light = pointLighting(s, toLight);
    float cone = smoothstep(lightCutoff.x, lightCutoff.y, dot(-toLight, lightDirection));
    emit(light * cone);
}
`

func geometryProgramSource() graphics.ProgramSource {
	return graphics.ProgramSource{
		Name:     graphics.ProgramGeometry,
		Vertex:   geometryVertexSrc,
		Fragment: geometryFragmentSrc,
	}
}

func lightProgramSource(kind lighting.Kind) graphics.ProgramSource {
	src := graphics.ProgramSource{Vertex: passThroughVertexSrc}
	switch kind {
	case lighting.KindAmbient:
		src.Name, src.Fragment = graphics.ProgramAmbientLight, ambientFragmentSrc
	case lighting.KindDirectional:
		src.Name, src.Fragment = graphics.ProgramDirectionalLight, directionalFragmentSrc
	case lighting.KindPoint:
		src.Name, src.Fragment = graphics.ProgramPointLight, pointFragmentSrc
	case lighting.KindSpot:
		src.Name, src.Fragment = graphics.ProgramSpotLight, spotFragmentSrc
	}
	return src
}
