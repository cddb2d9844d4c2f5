package nomadjob

import (
	"strings"
	"testing"
)

func TestParseJobFileValid(t *testing.T) {
	data := []byte(`{
		"ID": "web",
		"Name": "web",
		"Type": "service",
		"Priority": 50,
		"TaskGroups": [
			{
				"Name": "web-group",
				"Count": 2,
				"Tasks": [
					{"Name": "web", "Driver": "docker", "Config": {"image": "nginx:latest"}}
				]
			}
		]
	}`)

	job, err := ParseJobFile(data)
	if err != nil {
		t.Fatalf("ParseJobFile failed: %v", err)
	}
	if *job.ID != "web" {
		t.Errorf("id: %s", *job.ID)
	}
	if *job.TaskGroups[0].Count != 2 {
		t.Errorf("count: %d", *job.TaskGroups[0].Count)
	}
}

func TestParseJobFileMissingRequired(t *testing.T) {
	_, err := ParseJobFile([]byte(`{"Name": "web"}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "ID") || !strings.Contains(msg, "TaskGroups") {
		t.Errorf("error should name missing fields: %s", msg)
	}
}

func TestParseJobFileBadType(t *testing.T) {
	data := []byte(`{
		"ID": "web", "Name": "web", "Type": "cron",
		"TaskGroups": [{"Name": "g"}]
	}`)
	if _, err := ParseJobFile(data); err == nil {
		t.Fatal("expected error for unknown job type")
	}
}

func TestParseJobFileTaskMissingDriver(t *testing.T) {
	data := []byte(`{
		"ID": "web", "Name": "web",
		"TaskGroups": [{"Name": "g", "Tasks": [{"Name": "t"}]}]
	}`)
	if _, err := ParseJobFile(data); err == nil {
		t.Fatal("expected error for task without driver")
	}
}

func TestParseJobFileNotJSON(t *testing.T) {
	if _, err := ParseJobFile([]byte("job \"web\" {}")); err == nil {
		t.Fatal("expected error for HCL input")
	}
}
