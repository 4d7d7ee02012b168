package main

// litWGSL is the forward shader used for every viewer draw. The
// uniform structs mirror the constant commit order of the batch
// renderer exactly: each value occupies whole 16-byte slots, so
// scalars and vec2/vec3 values are padded to vec4.
//
// All draws are instanced. Locations 0-2 are the geometry stream,
// locations 3-5 the world transform rows and locations 6-12 the
// spherical harmonics ambient coefficients from the instance stream.
const litWGSL = `
struct FrameUniforms {
    delta_time: vec4<f32>,
    elapsed_time: vec4<f32>,
}

struct CameraUniforms {
    gbuffer_offsets: vec4<f32>,
    gbuffer_inv_size: vec4<f32>,
    camera_pos: vec4<f32>,
    view_inv: mat4x4<f32>,
    view: mat4x4<f32>,
    near_clip: vec4<f32>,
    far_clip: vec4<f32>,
    depth_mode: vec4<f32>,
    depth_reconstruct: vec4<f32>,
    frustum_size: vec4<f32>,
    view_proj: mat4x4<f32>,
    ambient_color: vec4<f32>,
    fog_color: vec4<f32>,
    fog_params: vec4<f32>,
}

// Vertex lights come as triplets: {color, inv range}, {direction,
// spot cutoff}, {position, inv cutoff}. Unused entries are zero.
struct LightUniforms {
    vertex_lights: array<vec4<f32>, 12>,
    light_dir: vec4<f32>,
    light_pos: vec4<f32>,
    light_color: vec4<f32>,
    light_rad: vec4<f32>,
    light_length: vec4<f32>,
}

struct MaterialUniforms {
    diff_color: vec4<f32>,
    spec_color: vec4<f32>,
    emissive_color: vec4<f32>,
    lightmap_offset: vec4<f32>,
}

@group(0) @binding(0) var<uniform> frame: FrameUniforms;
@group(0) @binding(1) var<uniform> camera: CameraUniforms;
@group(1) @binding(0) var<uniform> light: LightUniforms;
@group(2) @binding(0) var<uniform> material: MaterialUniforms;
@group(2) @binding(1) var mat_sampler: sampler;
@group(2) @binding(2) var diffuse_map: texture_2d<f32>;
@group(2) @binding(5) var lightmap: texture_2d<f32>;

struct VertexIn {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) uv: vec2<f32>,
    @location(3) row0: vec4<f32>,
    @location(4) row1: vec4<f32>,
    @location(5) row2: vec4<f32>,
    @location(6) sh_ar: vec4<f32>,
    @location(7) sh_ag: vec4<f32>,
    @location(8) sh_ab: vec4<f32>,
    @location(9) sh_br: vec4<f32>,
    @location(10) sh_bg: vec4<f32>,
    @location(11) sh_bb: vec4<f32>,
    @location(12) sh_c: vec4<f32>,
}

struct VertexOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) world_pos: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) uv: vec2<f32>,
    @location(3) ambient: vec3<f32>,
    @location(4) vertex_light: vec3<f32>,
    @location(5) depth: f32,
}

fn evaluate_sh(dir: vec3<f32>,
               ar: vec4<f32>, ag: vec4<f32>, ab: vec4<f32>,
               br: vec4<f32>, bg: vec4<f32>, bb: vec4<f32>,
               c: vec4<f32>) -> vec3<f32> {
    let n = vec4<f32>(dir, 1.0);
    let b = vec4<f32>(n.x * n.y, n.y * n.z, n.z * n.z, n.z * n.x);
    let cc = n.x * n.x - n.y * n.y;
    return vec3<f32>(
        dot(ar, n) + dot(br, b) + c.x * cc,
        dot(ag, n) + dot(bg, b) + c.y * cc,
        dot(ab, n) + dot(bb, b) + c.z * cc,
    );
}

fn vertex_lighting(world_pos: vec3<f32>, normal: vec3<f32>) -> vec3<f32> {
    var result = vec3<f32>(0.0);
    for (var i = 0u; i < 4u; i = i + 1u) {
        let color = light.vertex_lights[i * 3u];
        let dir = light.vertex_lights[i * 3u + 1u];
        let pos = light.vertex_lights[i * 3u + 2u];
        if (color.w == 0.0) {
            // Zero inverse range marks a directional light. Empty
            // entries have a zero direction and contribute nothing.
            result += color.rgb * max(dot(normal, dir.xyz), 0.0);
        } else {
            let light_vec = (pos.xyz - world_pos) * color.w;
            let light_dist = max(length(light_vec), 1e-4);
            let light_dir = light_vec / light_dist;
            let atten = clamp(1.0 - light_dist * light_dist, 0.0, 1.0);
            var spot_atten = 1.0;
            if (dir.w > -1.0) {
                spot_atten = clamp((dot(light_dir, dir.xyz) - dir.w) * pos.w, 0.0, 1.0);
            }
            result += color.rgb * (max(dot(normal, light_dir), 0.0) * atten * spot_atten);
        }
    }
    return result;
}

@vertex
fn vs_main(in: VertexIn) -> VertexOut {
    let p = vec4<f32>(in.position, 1.0);
    let world_pos = vec3<f32>(dot(in.row0, p), dot(in.row1, p), dot(in.row2, p));
    let n = vec4<f32>(in.normal, 0.0);
    let normal = normalize(vec3<f32>(dot(in.row0, n), dot(in.row1, n), dot(in.row2, n)));

    var out: VertexOut;
    out.clip = camera.view_proj * vec4<f32>(world_pos, 1.0);
    out.world_pos = world_pos;
    out.normal = normal;
    out.uv = in.uv;
    out.ambient = max(evaluate_sh(normal, in.sh_ar, in.sh_ag, in.sh_ab,
        in.sh_br, in.sh_bg, in.sh_bb, in.sh_c), vec3<f32>(0.0));
    out.vertex_light = vertex_lighting(world_pos, normal);
    out.depth = dot(camera.depth_mode.zw, out.clip.zw);
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    let albedo = textureSample(diffuse_map, mat_sampler, in.uv) * material.diff_color;

    // Without a lightmap the offset reads back as zero and the unit
    // holds the white fallback, so baked light stays neutral.
    let lm_uv = in.uv * material.lightmap_offset.xy + material.lightmap_offset.zw;
    let baked = textureSample(lightmap, mat_sampler, lm_uv).rgb;

    let normal = normalize(in.normal);

    var light_dir = light.light_dir.xyz;
    var atten = 1.0;
    if (light.light_pos.w > 0.0) {
        let light_vec = (light.light_pos.xyz - in.world_pos) * light.light_pos.w;
        let light_dist = max(length(light_vec), 1e-4);
        atten = clamp(1.0 - light_dist * light_dist, 0.0, 1.0);
        light_dir = normalize(light.light_pos.xyz - in.world_pos);
    }
    let n_dot_l = max(dot(normal, light_dir), 0.0);
    let direct = light.light_color.rgb * (n_dot_l * atten);

    var specular = vec3<f32>(0.0);
    if (light.light_color.a > 0.0) {
        let view_dir = normalize(camera.camera_pos.xyz - in.world_pos);
        let half_dir = normalize(light_dir + view_dir);
        let shine = pow(max(dot(normal, half_dir), 0.0), 16.0);
        specular = material.spec_color.rgb * light.light_color.rgb * (shine * light.light_color.a * atten);
    }

    let ambient = (camera.ambient_color.rgb + in.ambient) * baked;
    var color = albedo.rgb * (ambient + in.vertex_light + direct) + specular + material.emissive_color.rgb;

    let fog = clamp((camera.fog_params.x - in.depth) * camera.fog_params.y, 0.0, 1.0);
    color = mix(camera.fog_color.rgb, color, fog);
    return vec4<f32>(color, albedo.a);
}
`
