// Package models defines the data structures shared across the catalog,
// search, download, and persistence layers.
//
// A TrackDescriptor is the normalized form of a catalog track and carries
// everything downstream stages need: identity, search metadata, and the
// tag fields written into the finished audio file. CandidateMatch and
// DownloadOutcome describe the result of the search and download stages
// for a single track.
package models
