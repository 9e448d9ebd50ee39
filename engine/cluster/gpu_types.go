package cluster

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ClusterSetHeaderSize is the byte size of the ClusterSet header (numClusters + padding)
// that precedes the cluster array.
const ClusterSetHeaderSize = 16

// clusterIndicesOffset is the byte offset of lightIndices inside a Cluster record.
const clusterIndicesOffset = 32

// Cluster is the host copy of one WGSL Cluster record:
//
//	struct Cluster {
//	    minPoint: vec3f,                                    // @0
//	    maxPoint: vec3f,                                    // @16
//	    numLights: u32,                                     // @28
//	    lightIndices: array<u32, maxLightsPerCluster>,      // @32
//	}
//
// Only the first NumLights entries of LightIndices are meaningful, so the decoded slice is
// cut to that length.
type Cluster struct {
	MinPoint     mgl32.Vec3
	MaxPoint     mgl32.Vec3
	NumLights    uint32
	LightIndices []uint32
}

// ClusterStride returns the byte size of a Cluster record holding maxLights indices,
// rounded up to the record's 16-byte alignment.
func ClusterStride(maxLights uint32) uint64 {
	return common.AlignUp(clusterIndicesOffset+4*uint64(maxLights), 16)
}

// ClusterSetSize returns the byte size of a cluster set buffer.
//
// Parameters:
//   - numClusters: the number of records
//   - maxLights: the per-cluster index capacity
//
// Returns:
//   - uint64: header plus records in bytes
func ClusterSetSize(numClusters, maxLights uint32) uint64 {
	return ClusterSetHeaderSize + uint64(numClusters)*ClusterStride(maxLights)
}

// clusterOffset returns the byte offset of cluster record i.
func clusterOffset(i uint32, stride uint64) uint64 {
	return ClusterSetHeaderSize + uint64(i)*stride
}

// MarshalClusterSetHeader serializes the ClusterSet header.
func MarshalClusterSetHeader(numClusters uint32) []byte {
	buf := make([]byte, ClusterSetHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], numClusters)
	return buf
}

// DecodeClusterSet decodes a cluster set buffer.
//
// Parameters:
//   - buf: the buffer contents
//   - maxLights: the per-cluster index capacity the buffer was laid out with
//
// Returns:
//   - []Cluster: one entry per record announced by the header that fits in buf
func DecodeClusterSet(buf []byte, maxLights uint32) []Cluster {
	if len(buf) < ClusterSetHeaderSize {
		return nil
	}
	stride := ClusterStride(maxLights)
	n := binary.LittleEndian.Uint32(buf[0:4])
	if fit := uint32((uint64(len(buf)) - ClusterSetHeaderSize) / stride); fit < n {
		n = fit
	}

	clusters := make([]Cluster, n)
	for i := range clusters {
		rec := buf[clusterOffset(uint32(i), stride):]
		c := &clusters[i]
		c.MinPoint = getVec3(rec[0:])
		c.MaxPoint = getVec3(rec[16:])
		c.NumLights = binary.LittleEndian.Uint32(rec[28:32])
		count := min(c.NumLights, maxLights)
		c.LightIndices = make([]uint32, count)
		for j := range c.LightIndices {
			c.LightIndices[j] = binary.LittleEndian.Uint32(rec[clusterIndicesOffset+4*j:])
		}
	}
	return clusters
}

// writeCluster encodes a cluster record in place. Index slots past len(indices) keep
// whatever they held before.
func writeCluster(rec []byte, minPoint, maxPoint mgl32.Vec3, indices []uint32) {
	putVec3(rec[0:], minPoint)
	putVec3(rec[16:], maxPoint)
	binary.LittleEndian.PutUint32(rec[28:32], uint32(len(indices)))
	for j, idx := range indices {
		binary.LittleEndian.PutUint32(rec[clusterIndicesOffset+4*j:], idx)
	}
}

func putVec3(buf []byte, v mgl32.Vec3) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
}

func getVec3(buf []byte) mgl32.Vec3 {
	return mgl32.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
	}
}
