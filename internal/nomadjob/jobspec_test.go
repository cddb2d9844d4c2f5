package nomadjob

import (
	"strings"
	"testing"
)

func TestJobTemplateShape(t *testing.T) {
	job := JobTemplate("web", "nginx:latest", 8080)

	if *job.ID != "web" || *job.Name != "web" {
		t.Errorf("id/name: %s/%s", *job.ID, *job.Name)
	}
	if *job.Type != "service" {
		t.Errorf("type: %s", *job.Type)
	}
	if len(job.TaskGroups) != 1 {
		t.Fatalf("expected 1 task group, got %d", len(job.TaskGroups))
	}

	group := job.TaskGroups[0]
	if *group.Name != "web-group" || *group.Count != 1 {
		t.Errorf("group: %s count %d", *group.Name, *group.Count)
	}
	if len(group.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(group.Tasks))
	}

	task := group.Tasks[0]
	if task.Driver != "docker" {
		t.Errorf("driver: %s", task.Driver)
	}
	if task.Config["image"] != "nginx:latest" {
		t.Errorf("image: %v", task.Config["image"])
	}
	if len(task.Services) != 1 || len(task.Services[0].Checks) != 1 {
		t.Fatal("expected one service with one check")
	}
	check := task.Services[0].Checks[0]
	if check.Type != "http" || check.Path != "/health" {
		t.Errorf("check: %+v", check)
	}
	if *task.Resources.CPU != 256 || *task.Resources.MemoryMB != 512 {
		t.Errorf("resources: %+v", task.Resources)
	}

	ports := task.Resources.Networks[0].ReservedPorts
	if len(ports) != 1 || ports[0].Label != "http" || ports[0].Value != 8080 {
		t.Errorf("ports: %+v", ports)
	}
}

func TestInjectVaultTemplate(t *testing.T) {
	job := JobTemplate("web", "nginx:latest", 8080)
	InjectVaultTemplate(job, "secret/data/applications/web/production")

	task := job.TaskGroups[0].Tasks[0]
	if len(task.Templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(task.Templates))
	}

	tmpl := task.Templates[0]
	if *tmpl.DestPath != "secrets/app.env" {
		t.Errorf("dest path: %s", *tmpl.DestPath)
	}
	if *tmpl.ChangeMode != "restart" {
		t.Errorf("change mode: %s", *tmpl.ChangeMode)
	}
	if !strings.Contains(*tmpl.EmbeddedTmpl, `secret "secret/data/applications/web/production"`) {
		t.Errorf("template body missing secrets path: %s", *tmpl.EmbeddedTmpl)
	}
	if !strings.Contains(*tmpl.EmbeddedTmpl, "range $key, $value := .Data.data") {
		t.Errorf("template body missing field loop: %s", *tmpl.EmbeddedTmpl)
	}
}

func TestInjectVaultTemplateNoPath(t *testing.T) {
	job := JobTemplate("web", "nginx:latest", 8080)
	InjectVaultTemplate(job, "")

	if len(job.TaskGroups[0].Tasks[0].Templates) != 0 {
		t.Error("template injected despite empty path")
	}
}
