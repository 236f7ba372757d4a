package models

type CompletionStats struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	Done           int     `json:"done"`
	CompletionRate float64 `json:"completion_rate"`
}

type ProjectStats struct {
	TotalProjects     int `json:"total_projects"`
	ActiveProjects    int `json:"active_projects"`
	CompletedProjects int `json:"completed_projects"`
	ProjectsWithTasks int `json:"projects_with_tasks"`
}
