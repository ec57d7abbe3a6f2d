//go:build windows

package webgpu

// workgroupSize is the number of invocations per workgroup in every kernel.
const workgroupSize = 256

// Kernel sources by pipeline name. Every binding is referenced by the body so
// that the auto-generated layout keeps it.
var shaderSources = map[string]string{
	"relu":          reluShader,
	"relu_backward": reluBackwardShader,
	"add":           addShader,
	"accumulate":    accumulateShader,
	"fill":          fillShader,
}

// reluShader computes result = max(0, x).
const reluShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = max(x[idx], 0.0);
    }
}
`

// reluBackwardShader computes result = grad where x > 0, else 0.
const reluBackwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = select(0.0, grad[idx], x[idx] > 0.0);
    }
}
`

// addShader computes result = a + b. An operand shorter than the output is
// read modulo its length, which covers scalars and trailing-dimension
// broadcasts.
const addShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    a_len: u32,
    b_len: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx % params.a_len] + b[idx % params.b_len];
    }
}
`

// accumulateShader adds src into dst in place.
const accumulateShader = `
@group(0) @binding(0) var<storage, read_write> dst: array<f32>;
@group(0) @binding(1) var<storage, read> src: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        dst[idx] = dst[idx] + src[idx];
    }
}
`

// fillShader writes one value to every element. The value is passed as raw
// f32 bits.
const fillShader = `
@group(0) @binding(0) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    value: u32,
}
@group(0) @binding(1) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = bitcast<f32>(params.value);
    }
}
`
