// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "regexp"

// ArtifactKind identifies which artifact collection a resource locator
// refers to.
type ArtifactKind string

const (
	ArtifactKindRecordings  ArtifactKind = "recordings"
	ArtifactKindTranscripts ArtifactKind = "transcripts"
)

// ResourceScope distinguishes the classification outcomes of a resource
// locator.
type ResourceScope int

const (
	// ResourceScopeUnrecognized means the locator did not match any known
	// shape. This is an expected outcome for foreign notifications, not an
	// error.
	ResourceScopeUnrecognized ResourceScope = iota
	// ResourceScopeItem names one artifact of one meeting.
	ResourceScopeItem
	// ResourceScopeAggregate names an organizer without a specific meeting;
	// affected meetings must be discovered with a listing call.
	ResourceScopeAggregate
)

// ResourceDescriptor is the typed result of classifying a resource locator.
// OrganizerID, MeetingID, Kind and ArtifactID are populated according to the
// scope: item descriptors carry all four, aggregate descriptors carry only
// the organizer and kind.
type ResourceDescriptor struct {
	Scope       ResourceScope
	OrganizerID string
	MeetingID   string
	Kind        ArtifactKind
	ArtifactID  string
}

// Locator patterns. Item locators look like
// users('{org}')/onlineMeetings('{meeting}')/recordings('{artifact}') and the
// aggregate form ends in getAllRecordings or getAllTranscripts with only the
// organizer segment.
var (
	itemResourcePattern      = regexp.MustCompile(`^users\('([^']+)'\)/onlineMeetings\('([^']+)'\)/(recordings|transcripts)\('([^']+)'\)$`)
	aggregateResourcePattern = regexp.MustCompile(`^users\('([^']+)'\)/onlineMeetings/getAll(Recordings|Transcripts)$`)
)

// ClassifyResource parses an opaque resource locator into a typed
// descriptor. Malformed or foreign locators yield an unrecognized
// descriptor; the function never fails.
func ClassifyResource(resource string) ResourceDescriptor {
	if m := itemResourcePattern.FindStringSubmatch(resource); m != nil {
		return ResourceDescriptor{
			Scope:       ResourceScopeItem,
			OrganizerID: m[1],
			MeetingID:   m[2],
			Kind:        ArtifactKind(m[3]),
			ArtifactID:  m[4],
		}
	}

	if m := aggregateResourcePattern.FindStringSubmatch(resource); m != nil {
		kind := ArtifactKindRecordings
		if m[2] == "Transcripts" {
			kind = ArtifactKindTranscripts
		}
		return ResourceDescriptor{
			Scope:       ResourceScopeAggregate,
			OrganizerID: m[1],
			Kind:        kind,
		}
	}

	return ResourceDescriptor{Scope: ResourceScopeUnrecognized}
}
