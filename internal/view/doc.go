// Package view turns controller state into HTML.
//
// Every page is a set of named Containers. A controller builds a typed view
// model (ActivityList, WeatherView, ImageGallery, ...) from API payloads and
// renders it with html/template into one container. The latest render of a
// container replaces the previous one, so two timers writing the same
// container never interleave partial output.
//
// Design decision: Templates are embedded and parsed once. html/template
// escapes every server-provided string, which removes the injection risk of
// assembling markup by string concatenation; the only values marked safe
// are data URLs of live frames, after their payload was checked to be
// base64.
//
// Closing a Page turns every later write into a no-op. Requests still in
// flight when a page is torn down land harmlessly.
package view
