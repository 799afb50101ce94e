package schema

func init() {
	registerIssueCreate()
	registerIssueUpdate()
	registerCommentCreate()
}

const attachmentNote = "Files, sent as multipart/form-data parts that carry only a filename"

func registerIssueCreate() {
	Register("issue-create", Form("POST", "Issue/{project_id}",
		"Create an issue",
		map[string]*Schema{
			"title":             String("Issue title"),
			"priority_level_id": ID("Priority level, from PriorityLevels"),
			"resolver_id":       ID("Person who fixes the issue, from PeopleInProject"),
			"tester_id":         ID("Person who verifies the fix, from PeopleInProject"),
			"description":       String("Issue description"),
			"tags":              String("Comma-separated tags"),
			"watcher_ids":       IDList("People watching the issue"),
			"people_to_cc_ids":  IDList("People notified of the new issue"),
			"due_date":          Date("Due date"),
			"attachments":       File(attachmentNote),
		},
		"title", "priority_level_id", "resolver_id", "tester_id",
	))
}

func registerIssueUpdate() {
	Register("issue-update", Form("PUT", "Issue/{project_id}/{issue_id}",
		"Update an issue; only the fields sent change",
		map[string]*Schema{
			"title":             String("New title"),
			"priority_level_id": ID("New priority level"),
			"resolver_id":       ID("New resolver"),
			"tester_id":         ID("New tester"),
			"description":       String("New description"),
			"tags":              String("Comma-separated tags; empty clears them"),
			"state_id":          ID("New status, from PotentialStatusesForIssue"),
			"due_date":          Date("New due date"),
			"attachments":       File(attachmentNote),
		},
	))
}

func registerCommentCreate() {
	Register("comment-create", Form("POST", "Comment/{project_id}/{issue_id}",
		"Add a comment to an issue",
		map[string]*Schema{
			"comment":          String("Comment text"),
			"people_to_cc_ids": IDList("People notified of the comment"),
			"attachments":      File(attachmentNote),
		},
		"comment",
	))
}
