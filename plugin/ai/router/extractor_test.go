package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultExtractors(t *testing.T) {
	extractors := DefaultExtractors()

	tests := []struct {
		intent  string
		message string
		want    map[string]string
	}{
		{
			intent:  "calendar_scheduling",
			message: "Schedule a meeting with John tomorrow at 2pm",
			want:    map[string]string{"time": "2pm", "date": "tomorrow", "attendee": "John"},
		},
		{
			intent:  "calendar_scheduling",
			message: "Move the sync with Mary Jones to Friday 14:30",
			want:    map[string]string{"time": "14:30", "date": "friday", "attendee": "Mary Jones"},
		},
		{
			intent:  "calendar_scheduling",
			message: "remind me at 2:30 PM",
			want:    map[string]string{"time": "2:30 pm"},
		},
		{
			intent:  "email_management",
			message: "Send an email to sarah@company.com about the project",
			want:    map[string]string{"recipient": "sarah@company.com", "subject": "the project"},
		},
		{
			intent:  "email_management",
			message: "check my inbox",
			want:    map[string]string{},
		},
		{
			intent:  "file_operations",
			message: "Rename the file report.pdf",
			want:    map[string]string{"filename": "report.pdf", "operation": "rename"},
		},
		{
			intent:  "file_operations",
			message: `open "quarterly numbers"`,
			want:    map[string]string{"filename": "quarterly numbers", "operation": "open"},
		},
		{
			intent:  "web_research",
			message: "Search for the best hiking trails in Utah.",
			want:    map[string]string{"query": "the best hiking trails in Utah"},
		},
		{
			intent:  "web_research",
			message: "look up golang release notes",
			want:    map[string]string{"query": "golang release notes"},
		},
		{
			intent:  "coding_assistance",
			message: "Write a Python function that sorts a list",
			want:    map[string]string{"language": "python", "artifact": "function"},
		},
		{
			intent:  "coding_assistance",
			message: "port this class to C++",
			want:    map[string]string{"language": "c++", "artifact": "class"},
		},
		{
			intent:  "social_media",
			message: "Post about our summer sale on Instagram",
			want:    map[string]string{"platform": "instagram", "topic": "our summer sale on Instagram"},
		},
		{
			intent:  "crm_contact",
			message: "add a new contact for Jane Doe",
			want:    map[string]string{"contact_name": "Jane Doe"},
		},
		{
			intent:  "wordpress_publishing",
			message: `Publish a blog post titled "Ten Tips" as a draft`,
			want:    map[string]string{"title": "Ten Tips", "post_type": "post"},
		},
		{
			intent:  "video_production",
			message: "cut a 45 second vertical reel",
			want:    map[string]string{"duration": "45 second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.intent+"/"+tt.message, func(t *testing.T) {
			extract, ok := extractors[tt.intent]
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, tt.want, extract(tt.message))
		})
	}
}

func TestMergeExtractors(t *testing.T) {
	custom := func(string) map[string]string { return map[string]string{"k": "v"} }
	merged := mergeExtractors(map[string]ParamExtractor{"travel_booking": custom})

	assert.Contains(t, merged, "travel_booking")
	assert.Contains(t, merged, "calendar_scheduling")
	assert.Equal(t, map[string]string{"k": "v"}, merged["travel_booking"]("anything"))
}
