package transformer

import (
	"github.com/edaniels/golog"
)

// transformationNode is a node of the search tree spanned during chain
// resolution, rooted at the source frame. Nodes live only for the duration
// of one TransformationChain call.
type transformationNode struct {
	frameName   string
	parent      *transformationNode
	parentToCur TransformationElement
	children    []*transformationNode
}

// TransformationTree holds the set of available transformation elements and
// resolves chains between frames with a bounded breadth first search.
type TransformationTree struct {
	availableElements []TransformationElement
	maxSeekDepth      int
	logger            golog.Logger
}

// NewTransformationTree returns an empty tree. A maxSeekDepth of zero or
// less falls back to DefaultMaxSeekDepth.
func NewTransformationTree(maxSeekDepth int, logger golog.Logger) *TransformationTree {
	if maxSeekDepth <= 0 {
		maxSeekDepth = DefaultMaxSeekDepth
	}
	return &TransformationTree{maxSeekDepth: maxSeekDepth, logger: logger}
}

// AddTransformation adds an element to the set of available elements,
// together with its inverse. There is no deduplication; multiple elements
// between the same pair of frames represent independent sources and remain
// independently explorable.
func (tt *TransformationTree) AddTransformation(element TransformationElement) {
	tt.availableElements = append(tt.availableElements, element)
	tt.availableElements = append(tt.availableElements, NewInverseTransformationElement(element))
}

// addMatchingTransforms expands the node with a child for every available
// element whose source frame matches the node's frame.
func (tt *TransformationTree) addMatchingTransforms(node *transformationNode) {
	for _, element := range tt.availableElements {
		if element.SourceFrame() != node.frameName {
			continue
		}
		// guard against building A->B->A loops out of an element and its inverse
		if node.parent != nil && node.parent.frameName == element.TargetFrame() {
			continue
		}
		node.children = append(node.children, &transformationNode{
			frameName:   element.TargetFrame(),
			parent:      node,
			parentToCur: element,
		})
	}
}

// checkForMatchingChildFrame seeks through the children of the node for one
// with the wanted frame.
func checkForMatchingChildFrame(to string, node *transformationNode) *transformationNode {
	for _, child := range node.children {
		if child.frameName == to {
			return child
		}
	}
	return nil
}

// TransformationChain resolves an ordered chain of elements connecting frame
// from to frame to. The tree is searched breadth first, level by level, so
// the first chain found is also a shortest one in edge count; elements are
// visited in the order they were added. The chain is returned in the order
// the element transformations must be composed to carry a point from from to
// to. Identical frames yield an empty chain. Targets not reachable within
// the maximum seek depth yield an error.
func (tt *TransformationTree) TransformationChain(from, to string) ([]TransformationElement, error) {
	if from == to {
		// nothing to compose, the chain is the identity
		return []TransformationElement{}, nil
	}

	root := &transformationNode{frameName: from}
	curLevel := []*transformationNode{root}

	for depth := 0; depth < tt.maxSeekDepth && len(curLevel) > 0; depth++ {
		var nextLevel []*transformationNode

		for _, node := range curLevel {
			tt.addMatchingTransforms(node)

			if candidate := checkForMatchingChildFrame(to, node); candidate != nil {
				chain := make([]TransformationElement, 0, depth+1)
				for cur := candidate; cur.parent != nil; cur = cur.parent {
					chain = append(chain, cur.parentToCur)
				}
				// the walk collected leaf to root; reverse into composition order
				for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
					chain[i], chain[j] = chain[j], chain[i]
				}
				tt.logger.Debugf("found transformation chain from %q to %q, length %d", from, to, len(chain))
				return chain, nil
			}

			nextLevel = append(nextLevel, node.children...)
		}

		curLevel = nextLevel
	}

	tt.logger.Debugf("could not find transformation chain from %q to %q", from, to)
	return nil, NewFrameNotReachableError(from, to)
}
