package dto

// DashboardStats summarises a user's active records.
type DashboardStats struct {
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	TotalDatasets  int64 `json:"total_datasets"`
	TotalModels    int64 `json:"total_models"`
}
