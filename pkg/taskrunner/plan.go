package taskrunner

// PlanNode describes a task and, for series, its ordered steps.
type PlanNode struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Steps       []PlanNode `yaml:"steps,omitempty"`
}

// Plan returns the step tree the task would execute.
func (task *Task) Plan() PlanNode {
	node := PlanNode{Name: task.Name(), Description: task.Description()}
	for _, step := range task.Steps() {
		node.Steps = append(node.Steps, step.Plan())
	}
	return node
}
