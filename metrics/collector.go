package metrics

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemMetric Agent 所在机器的系统/进程指标快照，推给前端状态面板。
type SystemMetric struct {
	CPULoad        float64 `json:"cpu_load"`
	CPUProcessors  int     `json:"cpu_processors"`
	MemTotalGB     float64 `json:"mem_total"`
	MemUsedGB      float64 `json:"mem_used"`
	MemUsageRatio  float64 `json:"mem_usage"`
	DiskTotalGB    float64 `json:"disk_total"`
	DiskUsedGB     float64 `json:"disk_used"`
	DiskUsageRatio float64 `json:"disk_usage"`
	ProcUsedGB     float64 `json:"proc_used"`
}

const gb = 1024 * 1024 * 1024

// CollectSystemMetric 采集系统/进程指标。单项采集失败时该项留零值，不返回错误。
func CollectSystemMetric(ctx context.Context) SystemMetric {
	var out SystemMetric
	if avg, err := load.AvgWithContext(ctx); err == nil {
		out.CPULoad = avg.Load1
	}
	out.CPUProcessors = runtime.NumCPU()
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm.Total > 0 {
		out.MemTotalGB = float64(vm.Total) / gb
		out.MemUsedGB = float64(vm.Used) / gb
		out.MemUsageRatio = vm.UsedPercent / 100.0
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil && du.Total > 0 {
		out.DiskTotalGB = float64(du.Total) / gb
		out.DiskUsedGB = float64(du.Used) / gb
		out.DiskUsageRatio = du.UsedPercent / 100.0
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if pm, err := p.MemoryInfoWithContext(ctx); err == nil && pm != nil {
			out.ProcUsedGB = float64(pm.RSS) / gb
		}
	}
	return out
}
