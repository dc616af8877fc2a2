// Package graph routes the audio tracks of a media.Stream through a single
// gain stage into a destination. Every Context is owned by exactly one user;
// there is no process wide audio context.
package graph
