/*
Package texquad renders a single textured rectangle through a vertex and
fragment shader pipeline.

# Overview

A Pipeline compiles the shader pair, links it, loads an image in the
background, uploads the quad geometry, binds the image as a texture and sets
the uniforms. After that every Draw clears the color buffer and issues one
indexed draw of six indices. Nothing changes between frames, so repeated
draws produce identical output.

All GPU state goes through a Device, a render context that owns the object
bindings. backend/opengl implements it on an OpenGL 4.1 core context and
backend/softgl implements it in memory for headless rendering and tests.

# Quick Start

	// Setup (window and context from backend/opengl)
	win, _ := opengl.OpenWindow(800, 600)
	fbWidth, fbHeight := win.FramebufferSize()
	p := texquad.New(opengl.NewDevice(),
	    texquad.WithFramebuffer(fbWidth, fbHeight),
	    texquad.WithLoader(texquad.NewLoader(texquad.WithFS(assets.FS))),
	)
	if err := p.Init(ctx, assets.Sources(), "texture.png"); err != nil {
	    log.Fatal(err)
	}

	// Render loop
	for !win.ShouldClose() {
	    p.Draw()
	    win.Present()
	}

# Startup States

Init walks these states in order and never moves backwards:

	Uninitialized    nothing issued yet
	ShadersCompiled  both units passed the compile check
	ProgramLinked    program linked, five bindings resolved
	TextureLoading   image fetch in flight
	BuffersBuilt     vertex and index buffers uploaded, attributes wired
	TextureBound     texture object configured and filled
	Ready            uniforms set; Draw renders frames

The geometry needs the image dimensions, so buffers are built after the load
resolves. A pending backend error after any setup stage fails Init. Any
error stops Init in the last state reached; Draw returns ErrNotReady until
Ready.

# Coordinates

The quad is given in surface pixels with a top-left origin. The vertex stage
maps pixels to clip space with y flipped. Texture coordinates are carried in
image pixels and normalized by the texture dimensions in the fragment stage.

# Bindings

The shader identifiers are fixed:

	coordinate         aCoordinate         vec2 attribute
	textureCoordinate  aTextureCoord       vec2 attribute
	viewport           uViewport           vec2 uniform
	sampler            uSampler            sampler2D uniform
	textureDimensions  uTextureDimensions  vec2 uniform

Locations are resolved once after linking. A missing binding is a
*BindingResolutionError.

# Loading

Loader resolves an image ref either as an http(s) URL, fetched anonymously
without cookies or credentials, or as a path in an fs.FS such as the embedded
asset bundle. The payload is sniffed before decoding; PNG, JPEG, GIF, BMP and
WebP are supported. A load resolves exactly once, with an image, a
*TextureLoadError or a *TextureLoadTimeout.

# Configuration

LoadConfig reads a YAML file; missing keys keep the reference values:

	surface: {width: 800, height: 600}
	quad: {x: 10, y: 10, width: 780, height: 150}
	clear_color: [0.9, 0.9, 0.9, 1]
	image: texture.png
	load_timeout: 5s

# Logging

Pipeline logs through log/slog. SetVerbose(true) enables debug output:
state transitions, resolved locations and load results. Compile failures are
logged at error level together with the shader source, one line per record.
*/
package texquad
