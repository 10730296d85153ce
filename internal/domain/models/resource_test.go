// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyResource(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		expected ResourceDescriptor
	}{
		{
			name:     "item recording locator",
			resource: "users('org-1')/onlineMeetings('meet-1')/recordings('rec-1')",
			expected: ResourceDescriptor{
				Scope:       ResourceScopeItem,
				OrganizerID: "org-1",
				MeetingID:   "meet-1",
				Kind:        ArtifactKindRecordings,
				ArtifactID:  "rec-1",
			},
		},
		{
			name:     "item transcript locator",
			resource: "users('org-1')/onlineMeetings('meet-1')/transcripts('tr-9')",
			expected: ResourceDescriptor{
				Scope:       ResourceScopeItem,
				OrganizerID: "org-1",
				MeetingID:   "meet-1",
				Kind:        ArtifactKindTranscripts,
				ArtifactID:  "tr-9",
			},
		},
		{
			name:     "aggregate recordings locator",
			resource: "users('org-2')/onlineMeetings/getAllRecordings",
			expected: ResourceDescriptor{
				Scope:       ResourceScopeAggregate,
				OrganizerID: "org-2",
				Kind:        ArtifactKindRecordings,
			},
		},
		{
			name:     "aggregate transcripts locator",
			resource: "users('org-2')/onlineMeetings/getAllTranscripts",
			expected: ResourceDescriptor{
				Scope:       ResourceScopeAggregate,
				OrganizerID: "org-2",
				Kind:        ArtifactKindTranscripts,
			},
		},
		{
			name:     "empty locator",
			resource: "",
			expected: ResourceDescriptor{Scope: ResourceScopeUnrecognized},
		},
		{
			name:     "foreign resource",
			resource: "users('org-1')/chats('chat-1')/messages('m-1')",
			expected: ResourceDescriptor{Scope: ResourceScopeUnrecognized},
		},
		{
			name:     "item locator with trailing segment",
			resource: "users('org-1')/onlineMeetings('meet-1')/recordings('rec-1')/content",
			expected: ResourceDescriptor{Scope: ResourceScopeUnrecognized},
		},
		{
			name:     "aggregate locator with named meeting",
			resource: "users('org-1')/onlineMeetings('meet-1')/getAllRecordings",
			expected: ResourceDescriptor{Scope: ResourceScopeUnrecognized},
		},
		{
			name:     "missing quotes around IDs",
			resource: "users(org-1)/onlineMeetings(meet-1)/recordings(rec-1)",
			expected: ResourceDescriptor{Scope: ResourceScopeUnrecognized},
		},
		{
			name:     "IDs with special characters",
			resource: "users('AAMkAD_ej-81=')/onlineMeetings('MSp0aGlz')/recordings('enc.1!x')",
			expected: ResourceDescriptor{
				Scope:       ResourceScopeItem,
				OrganizerID: "AAMkAD_ej-81=",
				MeetingID:   "MSp0aGlz",
				Kind:        ArtifactKindRecordings,
				ArtifactID:  "enc.1!x",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyResource(tc.resource))
		})
	}
}

func TestMeetingArtifactBasePath(t *testing.T) {
	assert.Equal(t, "/users/org-1/onlineMeetings/meet-1", MeetingArtifactBasePath("org-1", "meet-1"))
}
