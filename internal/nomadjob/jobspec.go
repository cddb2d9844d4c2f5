package nomadjob

import (
	"fmt"
	"time"

	nomad "github.com/hashicorp/nomad/api"
)

// JobTemplate builds a single-task service job running a docker image with
// an HTTP health check, matching the shape this toolkit deploys everywhere:
// one task group, one container, a reserved http port and modest resources.
func JobTemplate(app, image string, port int) *nomad.Job {
	group := app + "-group"

	return &nomad.Job{
		ID:       ptr(app),
		Name:     ptr(app),
		Type:     ptr("service"),
		Priority: ptr(50),
		TaskGroups: []*nomad.TaskGroup{
			{
				Name:  ptr(group),
				Count: ptr(1),
				Tasks: []*nomad.Task{
					{
						Name:   app,
						Driver: "docker",
						Config: map[string]interface{}{
							"image": image,
							"port_map": []map[string]interface{}{
								{"http": port},
							},
						},
						Services: []*nomad.Service{
							{
								Name:      app,
								PortLabel: "http",
								Checks: []nomad.ServiceCheck{
									{
										Name:     "health",
										Type:     "http",
										Path:     "/health",
										Interval: 10 * time.Second,
										Timeout:  2 * time.Second,
									},
								},
							},
						},
						Resources: &nomad.Resources{
							CPU:      ptr(256),
							MemoryMB: ptr(512),
							Networks: []*nomad.NetworkResource{
								{
									ReservedPorts: []nomad.Port{
										{Label: "http", Value: port},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

// vaultTemplateBody renders every field of the secret record at the given
// path into an env file inside the allocation.
func vaultTemplateBody(secretsPath string) string {
	return fmt.Sprintf(`{{ with secret %q }}
{{ range $key, $value := .Data.data }}
{{ $key }}={{ $value }}
{{ end }}
{{ end }}`, secretsPath)
}

// InjectVaultTemplate appends a Vault-rendered env template to every task of
// the job, so the deployed workload picks up its secrets without baking them
// into the job file. Tasks restart when the secret version changes.
func InjectVaultTemplate(job *nomad.Job, secretsPath string) {
	if job == nil || secretsPath == "" {
		return
	}

	for _, group := range job.TaskGroups {
		for _, task := range group.Tasks {
			task.Templates = append(task.Templates, &nomad.Template{
				EmbeddedTmpl: ptr(vaultTemplateBody(secretsPath)),
				DestPath:     ptr("secrets/app.env"),
				ChangeMode:   ptr("restart"),
			})
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
